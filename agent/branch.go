package agent

import (
	"strings"

	"github.com/yuribarsotti/agentlab/core"
)

// buildBranchPath composes a hierarchical branch identifier: parent + "." +
// child, or child alone at the root.
func buildBranchPath(parent, child string) string {
	if parent == "" {
		return child
	}

	if child == "" {
		return parent
	}

	return parent + "." + child
}

// relay runs child on childRC, forwarding every event it emits to rc (when
// forward is set) and returning the events in emission order.
func relay(rc *core.RunContext, child core.Agent, childRC *core.RunContext, forward bool) ([]core.Event, error) {
	ch := make(chan core.Event, 16)
	childRC.Emit = ch

	done := make(chan error, 1)

	go func() {
		done <- child.Run(childRC)

		close(ch)
	}()

	var (
		events []core.Event
		fwdErr error
	)

	for ev := range ch {
		events = append(events, ev)

		if forward && fwdErr == nil {
			fwdErr = rc.Forward(ev)
		}
	}

	if err := <-done; err != nil {
		return events, err
	}

	return events, fwdErr
}

// lastAnswer returns the text of the last final assistant event, whatever
// its branch.
func lastAnswer(events []core.Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.IsError() || !ev.IsFinalResponse() || ev.Content == nil || ev.Content.Role != "assistant" {
			continue
		}

		if text := strings.TrimSpace(ev.Text()); text != "" {
			return text
		}
	}

	return ""
}

func escalated(events []core.Event) bool {
	for _, ev := range events {
		if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
			return true
		}
	}

	return false
}
