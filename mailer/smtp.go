package mailer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"mdmail/config"
	"mdmail/utils"
)

// SMTPTransport submits messages to a mail server instead of a local agent
type SMTPTransport struct {
	server    string
	port      int
	startTLS  bool
	username  string
	password  string
	tlsConfig *tls.Config
}

// NewSMTPTransport creates a new SMTP transport
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{
		server:    cfg.Server,
		port:      cfg.GetPort(),
		startTLS:  cfg.UseSTARTTLS,
		username:  cfg.Username,
		password:  cfg.Password,
		tlsConfig: &tls.Config{ServerName: cfg.Server},
	}
}

// Deliver submits msg. Recipients come from To, Cc and Bcc; the Bcc header
// itself is removed before the message is transmitted.
func (t *SMTPTransport) Deliver(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env, err := prepareEnvelope(msg)
	if err != nil {
		return utils.TransportError("failed to prepare envelope", err.Error(), err)
	}

	addr := net.JoinHostPort(t.server, strconv.Itoa(t.port))
	utils.Log.Debug("Connecting to %s as %s", addr, t.username)

	var client *smtp.Client
	if t.startTLS {
		client, err = smtp.DialStartTLS(addr, t.tlsConfig)
	} else {
		client, err = smtp.DialTLS(addr, t.tlsConfig)
	}
	if err != nil {
		return utils.TransportError("dial failed", err.Error(), err)
	}
	defer client.Close()

	if t.username != "" {
		auth := sasl.NewPlainClient("", t.username, t.password)
		if err := client.Auth(auth); err != nil {
			return utils.TransportError("auth failed", err.Error(), err)
		}
	}

	if err := client.SendMail(env.from, env.recipients, bytes.NewReader(env.data)); err != nil {
		return utils.TransportError("send failed", err.Error(), err)
	}

	closeSession(client, addr)
	return nil
}

// closeSession ends the SMTP session once the server has accepted the
// message. A failing QUIT does not undo the delivery, so it is only logged.
func closeSession(client interface{ Quit() error }, addr string) {
	if err := client.Quit(); err != nil {
		utils.Log.Warn("QUIT to %s failed after the message was accepted: %v", addr, err)
	}
}

type envelope struct {
	from       string
	recipients []string
	data       []byte
}

// prepareEnvelope extracts the SMTP envelope from the message headers, the
// way `sendmail -t` does, and strips Bcc from the transmitted copy.
func prepareEnvelope(msg []byte) (*envelope, error) {
	br := bufio.NewReader(bytes.NewReader(msg))
	hdr, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}
	h := mail.Header{Header: message.Header{Header: hdr}}

	from, err := h.AddressList("From")
	if err != nil || len(from) == 0 {
		return nil, fmt.Errorf("message has no usable From address")
	}

	var recipients []string
	for _, key := range []string{"To", "Cc", "Bcc"} {
		list, err := h.AddressList(key)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header: %w", key, err)
		}
		for _, addr := range list {
			recipients = append(recipients, addr.Address)
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	h.Del("Bcc")

	var out bytes.Buffer
	if err := textproto.WriteHeader(&out, h.Header.Header); err != nil {
		return nil, err
	}
	if _, err := io.Copy(&out, br); err != nil {
		return nil, err
	}

	return &envelope{
		from:       from[0].Address,
		recipients: recipients,
		data:       out.Bytes(),
	}, nil
}
