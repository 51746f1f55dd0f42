package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"mdmail/utils"
)

// Transport hands a complete message to something that delivers it. The
// message is never inspected or altered by the caller afterwards.
type Transport interface {
	Deliver(ctx context.Context, msg []byte) error
}

// SendmailTransport pipes the message into a local delivery agent such as
// `sendmail -t`, which reads the recipients from the headers.
type SendmailTransport struct {
	Command []string
}

// NewSendmailTransport creates a transport running command
func NewSendmailTransport(command []string) *SendmailTransport {
	return &SendmailTransport{Command: command}
}

// Deliver runs the delivery agent once. A non-zero exit is reported as a
// TransportError carrying the agent's stderr verbatim; it is not retried.
func (t *SendmailTransport) Deliver(ctx context.Context, msg []byte) error {
	if len(t.Command) == 0 {
		return utils.TransportError("no delivery command configured", "", nil)
	}

	cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...)
	// sendmail expects local line endings on stdin
	cmd.Stdin = bytes.NewReader(bytes.ReplaceAll(msg, []byte("\r\n"), []byte("\n")))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return utils.TransportError(
				fmt.Sprintf("%s exited with status %d", t.Command[0], exitErr.ExitCode()),
				stderr.String(), err)
		}
		return utils.TransportError(fmt.Sprintf("failed to run %s", t.Command[0]), stderr.String(), err)
	}

	if stdout.Len() > 0 {
		utils.Log.Debug("%s: %s", t.Command[0], stdout.String())
	}
	return nil
}
