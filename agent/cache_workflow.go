package agent

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// NewCacheWorkflow returns a workflow answering repeated messages from
// session state. The state key is the message itself; on a miss the agent
// answers (streamed to the caller) and its final content is cached.
func NewCacheWorkflow(name string, a core.Agent) *Workflow {
	return NewWorkflow(name, func(rc *core.RunContext, w *Workflow) error {
		message := rc.UserContent.Text()

		rc.LogInfo(fmt.Sprintf("Checking cache for '%s'", message), "event", "workflow.cache.check")

		if v, ok := rc.GetState(message); ok {
			if cached, ok := v.(string); ok && cached != "" {
				rc.LogInfo(fmt.Sprintf("Cache hit for '%s'", message), "event", "workflow.cache.hit")
				return w.Respond(rc, cached)
			}
		}

		rc.LogInfo(fmt.Sprintf("Cache miss for '%s'", message), "event", "workflow.cache.miss")

		answer, err := w.RunAgent(rc, a, message)
		if err != nil {
			return err
		}

		rc.SetState(message, answer)

		return nil
	}, a)
}
