package flow

// SelectFlow picks SingleAgentFlow for isolated agents and MultiAgentFlow
// for agents with transfer targets.
func SelectFlow(agent FlowAgent) Flow {
	if len(agent.TransferTargets()) == 0 {
		return NewSingleAgentFlow(agent)
	}

	return NewMultiAgentFlow(agent)
}
