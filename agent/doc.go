// Package agent contains the agent implementations of agentlab:
//
//  1. Base lifecycle and hierarchy plumbing (BaseAgent)
//  2. Model-centric conversational / tool-calling agent (ModelAgent)
//  3. Coordination patterns (SequentialAgent, ParallelAgent, LoopAgent)
//  4. Teams led by a model that coordinates, routes to or collaborates
//     with member agents (Team)
//  5. Code driven workflows with persisted session state (Workflow,
//     NewCacheWorkflow)
//
// Every agent receives a *core.RunContext, emits events through it and
// returns when its turn is over. Composite agents run children on derived
// contexts; nested executions that must not share conversation history
// run on their own branch.
package agent
