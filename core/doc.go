// Package core provides the foundational domain types, interfaces and execution
// contexts used by agentlab:
//
//   - Agents (units of autonomous or orchestrated work)
//   - Sessions (stateful conversational containers with event history)
//   - Events (immutable communication and orchestration records)
//   - RunContext / ToolContext (scoped execution and tool sandboxing)
//   - Pluggable stores for session state and memory recall
//
// Persistence backends, model adapters and concrete agents live in their own
// packages and depend on the small interfaces declared here.
package core
