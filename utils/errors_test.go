package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorKinds(t *testing.T) {
	err := AttachmentReadError("failed to read inline image", fs.ErrNotExist)

	assert.True(t, errors.Is(err, ErrAttachmentRead))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "failed to read inline image: file does not exist", err.Error())

	wrapped := fmt.Errorf("send: %w", err)
	assert.True(t, errors.Is(wrapped, ErrAttachmentRead))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrAttachmentRead, appErr.Kind)
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NoDraftError("No draft found - compose an email first", nil)
	assert.Equal(t, "No draft found - compose an email first", err.Error())
	assert.True(t, errors.Is(err, ErrNoDraft))
}

func TestDiagnostic(t *testing.T) {
	err := TransportError("delivery agent failed", "sendmail: unknown user\n", errors.New("exit status 67"))
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "sendmail: unknown user\n", Diagnostic(err))

	assert.Equal(t, "plain", Diagnostic(errors.New("plain")))
	assert.Equal(t, "delivery agent failed: boom",
		Diagnostic(TransportError("delivery agent failed", "", errors.New("boom"))))
}
