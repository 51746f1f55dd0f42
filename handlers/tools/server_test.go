package tools

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdmail/mailer"
	"mdmail/utils"
)

type fakeThreads struct {
	queries []string
}

func (f *fakeThreads) FindThreads(ctx context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	return "0000000000000abc\t2025-10-14\tplan\talice", nil
}

func (f *fakeThreads) ViewThread(ctx context.Context, threadID string) (string, error) {
	return "FROM: alice@example.com\nDATE: 2025-10-14\nhello", nil
}

func (f *fakeThreads) Sync(ctx context.Context) (string, error) {
	return "STDOUT:\nok\n", nil
}

type fakeDrafts struct {
	requests []mailer.ComposeRequest
	sendErr  error
}

func (f *fakeDrafts) Compose(ctx context.Context, req mailer.ComposeRequest) (string, error) {
	f.requests = append(f.requests, req)
	return "Created drafts:\n- /tmp/draft.md (edit this)\n- /tmp/draft.html (preview)", nil
}

func (f *fakeDrafts) Send(ctx context.Context) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "Email sent successfully", nil
}

func connect(t *testing.T, h *ToolHandler, opts Options) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(h, opts)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })

	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s failed", name)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func toolDescriptions(t *testing.T, cs *mcp.ClientSession) map[string]string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	tools := make(map[string]string)
	for _, tool := range res.Tools {
		tools[tool.Name] = tool.Description
	}
	return tools
}

func TestToolList(t *testing.T) {
	cs := connect(t, NewToolHandler(&fakeThreads{}, &fakeDrafts{}), Options{Name: "mdmail", Version: "test"})

	tools := toolDescriptions(t, cs)
	assert.Len(t, tools, 5)
	assert.NotContains(t, tools, "sync_emails")
	assert.Equal(t, "Compose a new email draft from markdown", tools["compose_new_email"])
}

func TestToolListWithSignatureAndSync(t *testing.T) {
	cs := connect(t, NewToolHandler(&fakeThreads{}, &fakeDrafts{}), Options{
		Name: "mdmail", Version: "test", HasSignature: true, SyncEnabled: true,
	})

	tools := toolDescriptions(t, cs)
	assert.Len(t, tools, 6)
	assert.Contains(t, tools, "sync_emails")
	assert.Contains(t, tools["compose_new_email"], "NEVER write an email signature")
	assert.Contains(t, tools["compose_email_reply"], "NEVER write an email signature")
	assert.NotContains(t, tools["send_email"], "signature")
}

func TestFindAndViewThread(t *testing.T) {
	threads := &fakeThreads{}
	cs := connect(t, NewToolHandler(threads, &fakeDrafts{}), Options{Name: "mdmail", Version: "test"})

	out := callText(t, cs, "find_email_thread", map[string]any{"notmuch_search_query": "from:alice"})
	assert.Contains(t, out, "0000000000000abc")
	assert.Equal(t, []string{"from:alice"}, threads.queries)

	out = callText(t, cs, "view_email_thread", map[string]any{"thread_id": "0000000000000abc"})
	assert.Contains(t, out, "FROM: alice@example.com")
}

func TestComposeTools(t *testing.T) {
	drafts := &fakeDrafts{}
	cs := connect(t, NewToolHandler(&fakeThreads{}, drafts), Options{Name: "mdmail", Version: "test"})

	out := callText(t, cs, "compose_new_email", map[string]any{
		"subject":          "Hello",
		"body_as_markdown": "# Hi",
		"to":               []string{"a@example.com"},
	})
	assert.Contains(t, out, "Created drafts:")

	callText(t, cs, "compose_email_reply", map[string]any{
		"thread_id":        "0000000000000abc",
		"subject":          "plan",
		"body_as_markdown": "ok",
		"to":               []string{"alice@example.com"},
		"cc":               []string{"bob@example.com"},
	})

	require.Len(t, drafts.requests, 2)
	assert.Equal(t, mailer.ComposeRequest{Subject: "Hello", Body: "# Hi", To: []string{"a@example.com"}}, drafts.requests[0])
	assert.Equal(t, "0000000000000abc", drafts.requests[1].ThreadID)
	assert.Equal(t, []string{"bob@example.com"}, drafts.requests[1].Cc)
}

func TestSendEmailTool(t *testing.T) {
	drafts := &fakeDrafts{}
	cs := connect(t, NewToolHandler(&fakeThreads{}, drafts), Options{Name: "mdmail", Version: "test"})

	assert.Equal(t, "Email sent successfully", callText(t, cs, "send_email", map[string]any{}))

	drafts.sendErr = utils.NoDraftError("No draft found - compose an email first", nil)
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "send_email", Arguments: map[string]any{}})
	if err == nil {
		assert.True(t, res.IsError)
		require.NotEmpty(t, res.Content)
		assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "No draft found")
	}
}

func TestSyncEmailsTool(t *testing.T) {
	cs := connect(t, NewToolHandler(&fakeThreads{}, &fakeDrafts{}), Options{Name: "mdmail", Version: "test", SyncEnabled: true})

	assert.Equal(t, "STDOUT:\nok\n", callText(t, cs, "sync_emails", map[string]any{}))
}
