package pragent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// WorkflowStatus is the latest known state of one workflow.
type WorkflowStatus struct {
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Timestamp  string `json:"timestamp"`
	Repository string `json:"repository"`
	HTMLURL    string `json:"html_url"`
}

// readEvents loads the flat GitHub events file. A missing file yields
// (nil, fs.ErrNotExist).
func readEvents(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []map[string]any
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	return events, nil
}

// RecentEvents returns up to limit events, newest first. A missing file
// yields an empty list.
func RecentEvents(path string, limit int) ([]map[string]any, error) {
	events, err := readEvents(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []map[string]any{}, nil
		}

		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return str(events[i], "timestamp") > str(events[j], "timestamp")
	})

	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

// WorkflowStatuses reduces workflow_run events to the newest status per
// workflow name, optionally filtered to one workflow.
func WorkflowStatuses(events []map[string]any, workflowName string) map[string]WorkflowStatus {
	out := map[string]WorkflowStatus{}

	for _, ev := range events {
		run, ok := ev["workflow_run"].(map[string]any)
		if !ok {
			continue
		}

		name := str(run, "name")
		if name == "" || (workflowName != "" && name != workflowName) {
			continue
		}

		ts := str(ev, "timestamp")

		if cur, seen := out[name]; seen && ts <= cur.Timestamp {
			continue
		}

		out[name] = WorkflowStatus{
			Status:     strOr(run, "status", "unknown"),
			Conclusion: strOr(run, "conclusion", "unknown"),
			Timestamp:  ts,
			Repository: repository(ev),
			HTMLURL:    str(run, "html_url"),
		}
	}

	return out
}

func repository(ev map[string]any) string {
	switch r := ev["repository"].(type) {
	case string:
		return r
	case map[string]any:
		return strOr(r, "full_name", "unknown")
	default:
		return "unknown"
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strOr(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}

	return def
}
