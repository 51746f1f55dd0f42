package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type DraftConfig struct {
	Dir          string `toml:"dir"`            // Where draft.md, draft.html and draft.json live
	ImageBaseDir string `toml:"image_base_dir"` // Relative <img> sources resolve against this
}

type SendmailConfig struct {
	From          string   `toml:"from"`
	SignatureHTML string   `toml:"signature_html"`
	Command       []string `toml:"command"`         // Delivery agent argv, message is fed on stdin
	PlainTextPart bool     `toml:"plain_text_part"` // Add a text/plain alternative next to the HTML
}

type NotmuchConfig struct {
	Binary          string   `toml:"binary"`
	DatabasePath    string   `toml:"database_path"`
	ReplySeparators []string `toml:"reply_separators"`
	SyncScript      string   `toml:"sync_script"`
	SearchLimit     int      `toml:"search_limit"`
}

type SMTPConfig struct {
	Server      string `toml:"server"`
	Port        int    `toml:"port"`
	UseSTARTTLS bool   `toml:"use_starttls"` // true for port 587, false for port 465
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}

type TransportConfig struct {
	Kind string `toml:"kind"` // "sendmail" or "smtp"
}

type PreviewConfig struct {
	Enabled   bool   `toml:"enabled"` // Start the preview server next to the MCP server
	Address   string `toml:"address"`
	RateLimit int    `toml:"rate_limit"` // Requests per minute per client
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Config struct {
	Draft     DraftConfig     `toml:"draft"`
	Sendmail  SendmailConfig  `toml:"sendmail"`
	Notmuch   NotmuchConfig   `toml:"notmuch"`
	SMTP      SMTPConfig      `toml:"smtp"`
	Transport TransportConfig `toml:"transport"`
	Preview   PreviewConfig   `toml:"preview"`
	Log       LogConfig       `toml:"log"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var config Config

	config.Draft.Dir = filepath.Join(os.TempDir(), "mcp-notmuch-sendmail")
	if wd, err := os.Getwd(); err == nil {
		config.Draft.ImageBaseDir = wd
	}

	config.Sendmail.Command = []string{"sendmail", "-t"}

	config.Notmuch.Binary = "notmuch"
	config.Notmuch.SearchLimit = 25

	// Default to STARTTLS port
	config.SMTP.Port = 587
	config.SMTP.UseSTARTTLS = true

	config.Transport.Kind = "sendmail"

	config.Preview.Address = "127.0.0.1:8025"
	config.Preview.RateLimit = 120

	config.Log.Level = "info"

	return &config
}

// LoadConfig reads filepath on top of the defaults and then applies the
// environment overrides. A missing file is only an error when required is
// set.
func LoadConfig(filepath string, required bool) (*Config, error) {
	config := Default()

	if filepath != "" {
		_, err := toml.DecodeFile(filepath, config)
		if err != nil && (required || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}

	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return config, nil
}

// applyEnv honours the environment variables the tool has always been
// configured with. They take precedence over the file.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("DRAFT_DIR"); v != "" {
		c.Draft.Dir = v
	}
	if v := getenv("SENDMAIL_FROM_EMAIL"); v != "" {
		c.Sendmail.From = v
	}
	if v := getenv("SENDMAIL_EMAIL_SIGNATURE_HTML"); v != "" {
		c.Sendmail.SignatureHTML = v
	}
	if v := getenv("NOTMUCH_DATABASE_PATH"); v != "" {
		c.Notmuch.DatabasePath = v
	}
	if v := getenv("NOTMUCH_REPLY_SEPARATORS"); v != "" {
		c.Notmuch.ReplySeparators = strings.Split(v, "|")
	}
	if v := getenv("NOTMUCH_SYNC_SCRIPT"); v != "" {
		c.Notmuch.SyncScript = v
	}
	if v := getenv("LOG_FILE_PATH"); v != "" {
		c.Log.File = v
	}
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Draft.Dir == "" {
		return fmt.Errorf("draft directory is required")
	}
	if len(c.Sendmail.Command) == 0 {
		return fmt.Errorf("sendmail command must not be empty")
	}

	switch c.Transport.Kind {
	case "sendmail":
	case "smtp":
		if c.SMTP.Server == "" {
			return fmt.Errorf("smtp transport requires smtp.server")
		}
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}

	return nil
}

// Helper method to get the appropriate SMTP port based on encryption
func (c *SMTPConfig) GetPort() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.UseSTARTTLS {
		return 587 // STARTTLS port
	}
	return 465 // SSL/TLS port
}

// SyncEnabled reports whether the sync_emails tool should be offered.
func (c *NotmuchConfig) SyncEnabled() bool {
	return c.SyncScript != ""
}
