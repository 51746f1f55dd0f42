// Package notmuch reads threads out of a notmuch mail index through the
// notmuch command line tool.
package notmuch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mdmail/config"
	"mdmail/models"
	"mdmail/utils"
)

const dateLayout = "2006-01-02"

// Client answers the thread queries the tools need
type Client struct {
	runner     Runner
	limit      int
	separators []string
	syncScript string
}

// NewClient creates a client running the configured notmuch binary
func NewClient(cfg config.NotmuchConfig) *Client {
	return NewClientWithRunner(&CLIRunner{Binary: cfg.Binary, DatabasePath: cfg.DatabasePath}, cfg)
}

// NewClientWithRunner creates a client on top of runner
func NewClientWithRunner(runner Runner, cfg config.NotmuchConfig) *Client {
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 25
	}

	separators := make([]string, 0, len(cfg.ReplySeparators))
	for _, sep := range cfg.ReplySeparators {
		if sep != "" {
			separators = append(separators, strings.ToLower(sep))
		}
	}

	return &Client{
		runner:     runner,
		limit:      limit,
		separators: separators,
		syncScript: cfg.SyncScript,
	}
}

type searchResult struct {
	Thread    string   `json:"thread"`
	Timestamp int64    `json:"timestamp"`
	Matched   int      `json:"matched"`
	Total     int      `json:"total"`
	Authors   string   `json:"authors"`
	Subject   string   `json:"subject"`
	Tags      []string `json:"tags"`
}

// SearchThreads returns the newest threads matching query
func (c *Client) SearchThreads(ctx context.Context, query string) ([]models.ThreadSummary, error) {
	out, err := c.runner.Run(ctx, "search", "--format=json", "--sort=newest-first",
		fmt.Sprintf("--limit=%d", c.limit), query)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, fmt.Errorf("failed to decode notmuch search output: %w", err)
	}

	threads := make([]models.ThreadSummary, 0, len(results))
	for _, r := range results {
		threads = append(threads, models.ThreadSummary{
			ID:      r.Thread,
			Newest:  time.Unix(r.Timestamp, 0),
			Subject: r.Subject,
			Authors: r.Authors,
			Total:   r.Total,
			Matched: r.Matched,
			Tags:    r.Tags,
		})
	}
	return threads, nil
}

// FindThreads formats SearchThreads as one tab separated line per thread:
// id, date of the newest message, subject and the authors' first names.
func (c *Client) FindThreads(ctx context.Context, query string) (string, error) {
	threads, err := c.SearchThreads(ctx, query)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(threads))
	for _, t := range threads {
		lines = append(lines, strings.Join([]string{
			t.ID,
			t.Newest.Local().Format(dateLayout),
			truncate(t.Subject, 80),
			truncate(shortAuthors(t.Authors), 40),
		}, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

// ThreadInfo returns the threading headers of the newest message in the
// thread, which is the one a reply answers.
func (c *Client) ThreadInfo(ctx context.Context, threadID string) (*models.ThreadInfo, error) {
	ids, err := c.messageIDs(ctx, threadID, "newest-first", 1)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, utils.ThreadNotFoundError(fmt.Sprintf("no messages in thread %s", threadID), nil).
			WithContext("thread_id", threadID)
	}

	raw, err := c.runner.Run(ctx, "show", "--format=raw", ids[0])
	if err != nil {
		return nil, err
	}
	return parseThreadInfo(raw)
}

// ViewThread renders every message of the thread, oldest first, as text
func (c *Client) ViewThread(ctx context.Context, threadID string) (string, error) {
	ids, err := c.messageIDs(ctx, threadID, "oldest-first", 0)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		raw, err := c.runner.Run(ctx, "show", "--format=raw", id)
		if err != nil {
			return "", err
		}
		msg, err := parseThreadMessage(raw)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", id, err)
		}
		texts = append(texts, c.messageText(msg))
	}
	return strings.Join(texts, "- - -\n"), nil
}

func (c *Client) messageText(msg *models.ThreadMessage) string {
	lines := []string{
		"FROM: " + strings.TrimSpace(msg.From),
		"DATE: " + msg.Date.Local().Format(dateLayout),
	}
	if msg.Body != "" {
		lines = append(lines, extractReply(msg.Body, c.separators))
	}
	return strings.Join(lines, "\n")
}

// messageIDs lists "id:..." search terms for the messages of a thread
func (c *Client) messageIDs(ctx context.Context, threadID, sort string, limit int) ([]string, error) {
	args := []string{"search", "--output=messages", "--sort=" + sort}
	if limit > 0 {
		args = append(args, fmt.Sprintf("--limit=%d", limit))
	}
	args = append(args, "thread:"+threadID)

	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, scanner.Err()
}

// Sync runs the configured sync script and reports what it printed
func (c *Client) Sync(ctx context.Context) (string, error) {
	if c.syncScript == "" {
		return "NOTMUCH_SYNC_SCRIPT environment variable not set", nil
	}

	script, err := filepath.Abs(c.syncScript)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(script)
	if err != nil {
		return fmt.Sprintf("Script not found: %s", script), nil
	}
	if info.Mode()&0111 == 0 {
		return fmt.Sprintf("Script is not executable: %s", script), nil
	}

	cmd := exec.CommandContext(ctx, script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return fmt.Sprintf("Error executing notmuch sync script: %v", runErr), nil
		}
		utils.Log.Warn("Sync script %s failed: %v", script, runErr)
	}

	output := "STDOUT:\n" + stdout.String()
	if stderr.Len() > 0 {
		output += "\n\nSTDERR:\n" + stderr.String()
	}
	return output, nil
}

// shortAuthors reduces "Alice Smith, Bob Jones| Carol" to "alice,bob,carol"
func shortAuthors(authors string) string {
	names := strings.FieldsFunc(authors, func(r rune) bool { return r == ',' || r == '|' })
	short := make([]string, 0, len(names))
	for _, name := range names {
		if fields := strings.Fields(name); len(fields) > 0 {
			short = append(short, strings.ToLower(fields[0]))
		}
	}
	return strings.Join(short, ",")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractReply cuts text at the first line starting with a separator such
// as "on ... wrote:", dropping the quoted history below it.
func extractReply(text string, separators []string) string {
	if len(separators) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, sep := range separators {
			if strings.HasPrefix(lower, sep) {
				return strings.TrimSpace(strings.Join(lines[:i], "\n"))
			}
		}
	}
	return text
}
