package flow

// MultiAgentFlow extends the single-agent pipeline with the transfer tool
// so the model can hand the conversation to related agents.
type MultiAgentFlow struct{ *BaseFlow }

// NewMultiAgentFlow creates a flow with transfer support.
func NewMultiAgentFlow(agent FlowAgent) *MultiAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddRequestProcessor(NewToolsProcessor())
	baseFlow.AddRequestProcessor(NewTransferToolInjector())

	return &MultiAgentFlow{BaseFlow: baseFlow}
}
