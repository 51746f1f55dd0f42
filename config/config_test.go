package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingOptionalFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"sendmail", "-t"}, cfg.Sendmail.Command)
	assert.Equal(t, "sendmail", cfg.Transport.Kind)
	assert.Equal(t, 25, cfg.Notmuch.SearchLimit)
}

func TestLoadConfigMissingRequiredFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), true)
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[draft]
dir = "/var/tmp/drafts"

[sendmail]
from = "me@example.com"
command = ["/usr/sbin/sendmail", "-t", "-oi"]
plain_text_part = true

[notmuch]
reply_separators = ["on ", "-----original"]

[transport]
kind = "smtp"

[smtp]
server = "smtp.example.com"
port = 465
use_starttls = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp/drafts", cfg.Draft.Dir)
	assert.Equal(t, "me@example.com", cfg.Sendmail.From)
	assert.Equal(t, []string{"/usr/sbin/sendmail", "-t", "-oi"}, cfg.Sendmail.Command)
	assert.True(t, cfg.Sendmail.PlainTextPart)
	assert.Equal(t, []string{"on ", "-----original"}, cfg.Notmuch.ReplySeparators)
	assert.Equal(t, "smtp", cfg.Transport.Kind)
	assert.Equal(t, 465, cfg.SMTP.GetPort())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DRAFT_DIR":                     "/drafts",
		"SENDMAIL_FROM_EMAIL":           "agent@example.com",
		"SENDMAIL_EMAIL_SIGNATURE_HTML": "<p>--<br>Agent</p>",
		"NOTMUCH_REPLY_SEPARATORS":      "on |from:",
		"NOTMUCH_SYNC_SCRIPT":           "sync.sh",
		"LOG_FILE_PATH":                 "/tmp/mdmail.log",
	}

	cfg := Default()
	cfg.applyEnv(func(key string) string { return env[key] })

	assert.Equal(t, "/drafts", cfg.Draft.Dir)
	assert.Equal(t, "agent@example.com", cfg.Sendmail.From)
	assert.Equal(t, "<p>--<br>Agent</p>", cfg.Sendmail.SignatureHTML)
	assert.Equal(t, []string{"on ", "from:"}, cfg.Notmuch.ReplySeparators)
	assert.True(t, cfg.Notmuch.SyncEnabled())
	assert.Equal(t, "/tmp/mdmail.log", cfg.Log.File)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Transport.Kind = "smtp"
	assert.Error(t, cfg.Validate())

	cfg.SMTP.Server = "smtp.example.com"
	assert.NoError(t, cfg.Validate())

	cfg.Transport.Kind = "pigeon"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Sendmail.Command = nil
	assert.Error(t, cfg.Validate())
}
