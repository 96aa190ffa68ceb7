package pragent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func connect(t *testing.T, client *mcp.Client, optFns ...func(o *Options)) *mcp.ClientSession {
	t.Helper()

	serverT, clientT := mcp.NewInMemoryTransports()

	ss, err := NewServer(optFns...).Connect(t.Context(), serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	if client == nil {
		client = mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	}

	cs, err := client.Connect(t.Context(), clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()

	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	return res.Content[0].(*mcp.TextContent).Text
}

func gitRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	run("init", "-q")
	run("checkout", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0o600))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	run("checkout", "-q", "-b", "feature")

	var b strings.Builder
	for range 20 {
		b.WriteString("line\n")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte(b.String()), 0o600))
	run("add", ".")
	run("commit", "-q", "-m", "add b")

	return dir
}

func TestAnalyzeFileChanges(t *testing.T) {
	dir := gitRepo(t)
	cs := connect(t, nil)

	out := callText(t, cs, "analyze_file_changes", map[string]any{
		"working_directory": dir,
		"max_diff_lines":    5,
	})

	var a Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "main", a.BaseBranch)
	assert.Contains(t, a.FilesChanged, "A\tb.txt")
	assert.Contains(t, a.Commits, "add b")
	assert.True(t, a.Truncated)
	assert.Greater(t, a.TotalDiffLines, 5)
	assert.Contains(t, a.Diff, "... Output truncated. Showing 5 of")
	assert.Contains(t, a.Diff, "\n... Use max_diff_lines parameter to see more ...")
}

func TestAnalyzeFileChanges_UsesClientRoot(t *testing.T) {
	dir := gitRepo(t)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	client.AddRoots(&mcp.Root{URI: "file://" + filepath.ToSlash(dir)})

	cs := connect(t, client)

	out := callText(t, cs, "analyze_file_changes", map[string]any{"include_diff": false})

	var a Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Contains(t, a.FilesChanged, "b.txt")
	assert.Equal(t, "Diff not included (set include_diff=true to see full diff)", a.Diff)
	assert.Zero(t, a.TotalDiffLines)
}

func TestAnalyzeFileChanges_GitError(t *testing.T) {
	dir := gitRepo(t)
	cs := connect(t, nil)

	out := callText(t, cs, "analyze_file_changes", map[string]any{
		"working_directory": dir,
		"base_branch":       "does-not-exist",
	})

	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, strings.HasPrefix(res["error"], "Git error: "))
}

func TestTruncateDiff(t *testing.T) {
	diff, truncated, total := truncateDiff("a\nb", 5)
	assert.Equal(t, "a\nb", diff)
	assert.False(t, truncated)
	assert.Equal(t, 2, total)

	diff, truncated, total = truncateDiff("a\nb\nc", 2)
	assert.True(t, truncated)
	assert.Equal(t, 3, total)
	assert.Equal(t, "a\nb\n\n... Output truncated. Showing 2 of 3 lines ...\n... Use max_diff_lines parameter to see more ...", diff)
}

func TestTemplates(t *testing.T) {
	cs := connect(t, nil)

	var templates []Template
	require.NoError(t, json.Unmarshal([]byte(callText(t, cs, "get_pr_templates", nil)), &templates))
	require.Len(t, templates, 7)
	assert.Equal(t, "bug.md", templates[0].Filename)
	assert.Equal(t, "Bug Fix", templates[0].Type)
	assert.Contains(t, templates[0].Content, "## Bug Fix")

	out := callText(t, cs, "suggest_template", map[string]any{
		"changes_summary": "speeds up parsing",
		"change_type":     "Optimization",
	})

	var suggestion struct {
		Recommended Template `json:"recommended_template"`
		Reasoning   string   `json:"reasoning"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &suggestion))
	assert.Equal(t, "performance.md", suggestion.Recommended.Filename)
	assert.Equal(t, "Based on your analysis: 'speeds up parsing', this appears to be a Optimization change.", suggestion.Reasoning)
}

func TestSelectTemplate_DefaultsToFeature(t *testing.T) {
	templates, err := LoadTemplates("")
	require.NoError(t, err)

	assert.Equal(t, "feature.md", SelectTemplate(templates, "mystery").Filename)
}

func TestLoadTemplates_Dir(t *testing.T) {
	dir := t.TempDir()

	for _, dt := range defaultTemplates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, dt.file), []byte("custom "+dt.kind), 0o600))
	}

	templates, err := LoadTemplates(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom Security", templates[6].Content)

	_, err = LoadTemplates(t.TempDir())
	require.Error(t, err)
}

const eventsJSON = `[
  {"timestamp": "2025-01-01T10:00:00Z", "repository": "acme/app", "workflow_run": {"name": "CI", "status": "completed", "conclusion": "failure", "html_url": "u1"}},
  {"timestamp": "2025-01-02T10:00:00Z", "repository": "acme/app", "workflow_run": {"name": "CI", "status": "completed", "conclusion": "success", "html_url": "u2"}},
  {"timestamp": "2025-01-03T10:00:00Z", "repository": {"full_name": "acme/app"}, "workflow_run": {"name": "Deploy", "status": "in_progress"}},
  {"timestamp": "2025-01-04T10:00:00Z", "action": "opened"}
]`

func TestActionsEvents(t *testing.T) {
	file := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(file, []byte(eventsJSON), 0o600))

	cs := connect(t, nil, func(o *Options) { o.EventsFile = file })

	var recent []map[string]any
	require.NoError(t, json.Unmarshal([]byte(callText(t, cs, "get_recent_actions_events", map[string]any{"limit": 2})), &recent))
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-01-04T10:00:00Z", recent[0]["timestamp"])

	var status map[string]WorkflowStatus
	require.NoError(t, json.Unmarshal([]byte(callText(t, cs, "get_workflow_status", nil)), &status))
	require.Len(t, status, 2)
	assert.Equal(t, "success", status["CI"].Conclusion)
	assert.Equal(t, "u2", status["CI"].HTMLURL)
	assert.Equal(t, "unknown", status["Deploy"].Conclusion)
	assert.Equal(t, "acme/app", status["Deploy"].Repository)

	status = nil
	require.NoError(t, json.Unmarshal([]byte(callText(t, cs, "get_workflow_status", map[string]any{"workflow_name": "Deploy"})), &status))
	assert.Len(t, status, 1)
}

func TestActionsEvents_MissingFile(t *testing.T) {
	cs := connect(t, nil, func(o *Options) { o.EventsFile = filepath.Join(t.TempDir(), "none.json") })

	assert.Equal(t, "[]", callText(t, cs, "get_recent_actions_events", nil))
	assert.JSONEq(t, `{"error":"No events file found"}`, callText(t, cs, "get_workflow_status", nil))
}

func TestSendSlackNotification(t *testing.T) {
	cs := connect(t, nil)
	assert.Contains(t, callText(t, cs, "send_slack_notification", map[string]any{"message": "hi"}), "SLACK_WEBHOOK_URL")

	n := &fakeNotifier{}
	cs = connect(t, nil, func(o *Options) { o.Notifier = n })
	assert.Equal(t, "✅ Message sent successfully to Slack", callText(t, cs, "send_slack_notification", map[string]any{"message": "deployed"}))
	assert.Equal(t, []string{"deployed"}, n.messages)

	n = &fakeNotifier{err: errors.New("boom")}
	cs = connect(t, nil, func(o *Options) { o.Notifier = n })
	assert.Contains(t, callText(t, cs, "send_slack_notification", map[string]any{"message": "x"}), "boom")
}

func TestPrompts(t *testing.T) {
	cs := connect(t, nil)

	var names []string

	for p, err := range cs.Prompts(t.Context(), nil) {
		require.NoError(t, err)

		names = append(names, p.Name)
	}

	assert.ElementsMatch(t, []string{
		"analyze_ci_results",
		"create_deployment_summary",
		"generate_pr_status_report",
		"troubleshoot_workflow_failure",
	}, names)

	res, err := cs.GetPrompt(t.Context(), &mcp.GetPromptParams{Name: "create_deployment_summary"})
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "🚀 **Deployment Update**")
}
