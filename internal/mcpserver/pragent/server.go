// Package pragent is an MCP server that helps write pull requests: it
// analyzes git changes, suggests description templates, reports GitHub
// Actions status from a webhook events file and posts Slack notifications.
package pragent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yuribarsotti/agentlab/internal/notify"
	"github.com/yuribarsotti/agentlab/logging"
)

const (
	Name    = "pr-agent"
	Version = "v1.0.0"
)

// Options configures the server.
type Options struct {
	// TemplatesDir overrides the built-in PR templates.
	TemplatesDir string
	// EventsFile is the JSON array of GitHub webhook events.
	EventsFile string
	// Notifier delivers send_slack_notification messages. Nil disables it.
	Notifier notify.Notifier
	Logger   logging.Logger
}

type server struct {
	opts Options
}

// NewServer builds the pr-agent server.
func NewServer(optFns ...func(o *Options)) *mcp.Server {
	opts := Options{
		EventsFile: "github_events.json",
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &server{opts: opts}

	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "analyze_file_changes",
		Description: "Get the full diff and list of changed files in the current git repository.",
	}, s.analyzeFileChanges)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_pr_templates",
		Description: "List available PR templates with their content.",
	}, s.getPRTemplates)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "suggest_template",
		Description: "Analyze the changes and suggest the most appropriate PR template.",
	}, s.suggestTemplate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_recent_actions_events",
		Description: "Get the most recent GitHub Actions events.",
	}, s.recentActionsEvents)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_workflow_status",
		Description: "Get the status of GitHub Actions workflows from recent events.",
	}, s.workflowStatus)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "send_slack_notification",
		Description: "Send a formatted notification to the team Slack channel.",
	}, s.sendSlackNotification)

	addPrompts(srv)

	return srv
}

type analyzeInput struct {
	BaseBranch       string `json:"base_branch,omitempty" jsonschema:"Base branch to compare against (default: main)"`
	IncludeDiff      *bool  `json:"include_diff,omitempty" jsonschema:"Include the full diff content (default: true)"`
	MaxDiffLines     int    `json:"max_diff_lines,omitempty" jsonschema:"Maximum number of diff lines to include (default: 500)"`
	WorkingDirectory string `json:"working_directory,omitempty" jsonschema:"Directory to run git commands in (default: client root or current directory)"`
}

func (s *server) analyzeFileChanges(ctx context.Context, req *mcp.CallToolRequest, in analyzeInput) (*mcp.CallToolResult, any, error) {
	opts := AnalyzeOptions{BaseBranch: "main", IncludeDiff: true, MaxDiffLines: 500}

	if in.BaseBranch != "" {
		opts.BaseBranch = in.BaseBranch
	}

	if in.IncludeDiff != nil {
		opts.IncludeDiff = *in.IncludeDiff
	}

	if in.MaxDiffLines > 0 {
		opts.MaxDiffLines = in.MaxDiffLines
	}

	processCwd, _ := os.Getwd()

	rootsCheck := map[string]any{"found": false}

	dir := in.WorkingDirectory
	if dir == "" {
		root, err := rootDirectory(ctx, req.Session)
		if err == nil {
			dir = root
			rootsCheck = map[string]any{"found": true, "root": root}
		} else {
			rootsCheck["error"] = err.Error()
		}
	}

	if dir == "" {
		dir = processCwd
	}

	a, err := AnalyzeChanges(ctx, dir, opts)
	if err != nil {
		s.opts.Logger.Warn("pragent.analyze.error", "dir", dir, "error", err.Error())

		var gitErr *GitError
		if errors.As(err, &gitErr) {
			return jsonResult(map[string]string{"error": "Git error: " + gitErr.Stderr})
		}

		return jsonResult(map[string]string{"error": err.Error()})
	}

	a.Debug = map[string]any{
		"provided_working_directory": in.WorkingDirectory,
		"actual_cwd":                 dir,
		"server_process_cwd":         processCwd,
		"roots_check":                rootsCheck,
	}

	return jsonResult(a)
}

func (s *server) getPRTemplates(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	templates, err := LoadTemplates(s.opts.TemplatesDir)
	if err != nil {
		return jsonResult(map[string]string{"error": err.Error()})
	}

	return jsonResult(templates)
}

type suggestInput struct {
	ChangesSummary string `json:"changes_summary" jsonschema:"Your analysis of what the changes do"`
	ChangeType     string `json:"change_type" jsonschema:"The type of change (bug, feature, docs, refactor, test, etc.)"`
}

func (s *server) suggestTemplate(_ context.Context, _ *mcp.CallToolRequest, in suggestInput) (*mcp.CallToolResult, any, error) {
	templates, err := LoadTemplates(s.opts.TemplatesDir)
	if err != nil {
		return jsonResult(map[string]string{"error": err.Error()})
	}

	selected := SelectTemplate(templates, in.ChangeType)

	return jsonResult(map[string]any{
		"recommended_template": selected,
		"reasoning":            fmt.Sprintf("Based on your analysis: '%s', this appears to be a %s change.", in.ChangesSummary, in.ChangeType),
		"template_content":     selected.Content,
		"usage_hint":           "The assistant can help you fill out this template based on the specific changes in your PR.",
	})
}

type eventsInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Maximum number of events to return (default: 10)"`
}

func (s *server) recentActionsEvents(_ context.Context, _ *mcp.CallToolRequest, in eventsInput) (*mcp.CallToolResult, any, error) {
	limit := 10
	if in.Limit != nil {
		limit = *in.Limit
	}

	events, err := RecentEvents(s.opts.EventsFile, limit)
	if err != nil {
		return jsonResult(map[string]string{"error": "Failed to read events: " + err.Error()})
	}

	return jsonResult(events)
}

type workflowInput struct {
	WorkflowName string `json:"workflow_name,omitempty" jsonschema:"Workflow name to filter"`
}

func (s *server) workflowStatus(_ context.Context, _ *mcp.CallToolRequest, in workflowInput) (*mcp.CallToolResult, any, error) {
	events, err := readEvents(s.opts.EventsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return jsonResult(map[string]string{"error": "No events file found"})
		}

		return jsonResult(map[string]string{"error": "Failed to process workflow status: " + err.Error()})
	}

	return jsonResult(WorkflowStatuses(events, in.WorkflowName))
}

type slackInput struct {
	Message string `json:"message" jsonschema:"The message to send, Slack markdown allowed"`
}

func (s *server) sendSlackNotification(ctx context.Context, _ *mcp.CallToolRequest, in slackInput) (*mcp.CallToolResult, any, error) {
	if s.opts.Notifier == nil {
		return textResult("❌ Error: SLACK_WEBHOOK_URL environment variable not set"), nil, nil
	}

	if err := s.opts.Notifier.Notify(ctx, in.Message); err != nil {
		s.opts.Logger.Warn("pragent.slack.error", "error", err.Error())
		return textResult("❌ Error sending message: " + err.Error()), nil, nil
	}

	return textResult("✅ Message sent successfully to Slack"), nil, nil
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}

	return textResult(string(b)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
