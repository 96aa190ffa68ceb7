package pragent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GitError carries the stderr of a failed git invocation.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), strings.TrimSpace(e.Stderr))
}

func (e *GitError) Unwrap() error { return e.Err }

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &GitError{Args: args, Stderr: stderr.String(), Err: err}
	}

	return stdout.String(), nil
}

// Analysis is the analyze_file_changes result.
type Analysis struct {
	BaseBranch     string `json:"base_branch"`
	FilesChanged   string `json:"files_changed"`
	Statistics     string `json:"statistics"`
	Commits        string `json:"commits"`
	Diff           string `json:"diff"`
	Truncated      bool   `json:"truncated"`
	TotalDiffLines int    `json:"total_diff_lines"`
	Debug          any    `json:"_debug,omitempty"`
}

// AnalyzeOptions controls AnalyzeChanges.
type AnalyzeOptions struct {
	BaseBranch   string
	IncludeDiff  bool
	MaxDiffLines int
}

// AnalyzeChanges collects the changed files, diff statistics, commits and
// (optionally truncated) diff of HEAD against the base branch. Only the file
// listing is required to succeed.
func AnalyzeChanges(ctx context.Context, dir string, opts AnalyzeOptions) (*Analysis, error) {
	rangeSpec := opts.BaseBranch + "...HEAD"

	files, err := runGit(ctx, dir, "diff", "--name-status", rangeSpec)
	if err != nil {
		return nil, err
	}

	stats, _ := runGit(ctx, dir, "diff", "--stat", rangeSpec)
	commits, _ := runGit(ctx, dir, "log", "--oneline", opts.BaseBranch+"..HEAD")

	a := &Analysis{
		BaseBranch:   opts.BaseBranch,
		FilesChanged: files,
		Statistics:   stats,
		Commits:      commits,
		Diff:         "Diff not included (set include_diff=true to see full diff)",
	}

	if opts.IncludeDiff {
		diff, _ := runGit(ctx, dir, "diff", rangeSpec)
		a.Diff, a.Truncated, a.TotalDiffLines = truncateDiff(diff, opts.MaxDiffLines)
	}

	return a, nil
}

func truncateDiff(diff string, maxLines int) (string, bool, int) {
	lines := strings.Split(diff, "\n")
	total := len(lines)

	if total <= maxLines {
		return diff, false, total
	}

	out := strings.Join(lines[:maxLines], "\n")
	out += fmt.Sprintf("\n\n... Output truncated. Showing %d of %d lines ...", maxLines, total)
	out += "\n... Use max_diff_lines parameter to see more ..."

	return out, true, total
}

// rootDirectory returns the local path of the client's first file:// root.
func rootDirectory(ctx context.Context, ss *mcp.ServerSession) (string, error) {
	if ss == nil {
		return "", errors.New("no session")
	}

	res, err := ss.ListRoots(ctx, nil)
	if err != nil {
		return "", err
	}

	if len(res.Roots) == 0 {
		return "", errors.New("client advertised no roots")
	}

	u, err := url.Parse(res.Roots[0].URI)
	if err != nil {
		return "", err
	}

	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported root scheme %q", u.Scheme)
	}

	return u.Path, nil
}
