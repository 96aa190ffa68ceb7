package flow

import (
	"errors"
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
)

// Error codes carried by error events emitted from flows.
const (
	ErrorCodeModel     = "MODEL_ERROR"
	ErrorCodeLimit     = "MODEL_CALL_LIMIT"
	ErrorCodeProcessor = "REQUEST_PROCESSOR_ERROR"
	ErrorCodeTransfer  = "TRANSFER_ERROR"
)

// BaseFlow implements the request -> model -> tools loop with pluggable
// request processors. Processors run in registration order.
type BaseFlow struct {
	agent             FlowAgent
	requestProcessors []RequestProcessor
	executor          FunctionExecutor
}

// NewBaseFlow creates a flow without processors.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:    agent,
		executor: NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 8}),
	}
}

// AddRequestProcessor appends a request processor.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// SetFunctionExecutor replaces the function executor.
func (f *BaseFlow) SetFunctionExecutor(e FunctionExecutor) { f.executor = e }

// Execute runs model turns until a final answer, a transfer or an
// unrecoverable error.
func (f *BaseFlow) Execute(rc *core.RunContext) error {
	for {
		if err := rc.Err(); err != nil {
			return err
		}

		last, req, err := f.runOnce(rc)
		if err != nil {
			return err
		}

		calls := last.GetFunctionCalls()
		if len(calls) == 0 {
			return nil
		}

		responses := f.executor.Execute(rc, f.agent.Name(), req.Toolset, calls)

		if target := transferTarget(responses); target != "" {
			return f.transfer(rc, target)
		}

		if endsTurn(responses) {
			return nil
		}
	}
}

// runOnce performs one model call and emits its events. It returns the
// final event of the turn and the request that produced it.
func (f *BaseFlow) runOnce(rc *core.RunContext) (core.Event, *Request, error) {
	agentName := f.agent.Name()

	req := &Request{Request: model.Request{Stream: f.agent.StreamingEnabled()}}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(rc, req, f.agent); err != nil {
			err = fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
			f.emitError(rc, ErrorCodeProcessor, err)

			return core.Event{}, nil, err
		}
	}

	if rc.Limiter != nil {
		if err := rc.Limiter.Increment(); err != nil {
			f.emitError(rc, ErrorCodeLimit, err)
			return core.Event{}, nil, err
		}
	}

	rc.LogDebug("flow.model.request", "agent", agentName, "contents", len(req.Contents), "tools", len(req.Tools))

	respCh, errCh := f.agent.Model().Generate(rc.Context, req.Request)

	var (
		final core.Event
		found bool
	)

	for resp := range respCh {
		if resp.Content.Role == "" {
			resp.Content.Role = "assistant"
		}

		content := resp.Content

		ev := core.NewEvent(rc.RunID, agentName)
		ev.Content = &content

		if resp.Partial {
			partial := true
			ev.Partial = &partial

			if err := rc.EmitEvent(ev); err != nil {
				drain(respCh)
				return core.Event{}, nil, err
			}

			continue
		}

		if resp.Usage != nil {
			ev.CustomMetadata = map[string]string{
				"prompt_tokens":     fmt.Sprint(resp.Usage.PromptTokens),
				"completion_tokens": fmt.Sprint(resp.Usage.CompletionTokens),
			}
		}

		if len(ev.GetFunctionCalls()) == 0 {
			complete := true
			ev.TurnComplete = &complete

			if key := f.agent.OutputKey(); key != "" {
				rc.SetState(key, content.Text())
			}
		}

		if err := rc.EmitEvent(ev); err != nil {
			drain(respCh)
			return core.Event{}, nil, err
		}

		if err := rc.WaitForResume(); err != nil {
			drain(respCh)
			return core.Event{}, nil, err
		}

		final = ev
		found = true
	}

	if err := <-errCh; err != nil {
		if errors.Is(err, rc.Err()) {
			return core.Event{}, nil, err
		}

		f.emitError(rc, ErrorCodeModel, err)

		return core.Event{}, nil, fmt.Errorf("model %s: %w", f.agent.Model().Info().Name, err)
	}

	if !found {
		f.emitError(rc, ErrorCodeModel, model.ErrNoResponse)
		return core.Event{}, nil, model.ErrNoResponse
	}

	return final, req, nil
}

func (f *BaseFlow) transfer(rc *core.RunContext, name string) error {
	for _, target := range f.agent.TransferTargets() {
		if target.Name() != name {
			continue
		}

		rc.LogInfo("flow.transfer", "from_agent", f.agent.Name(), "to_agent", name)

		return target.Run(rc.WithAgent(core.AgentInfo{Name: name, Type: fmt.Sprintf("%T", target)}))
	}

	err := fmt.Errorf("transfer target %q not found", name)
	f.emitError(rc, ErrorCodeTransfer, err)

	return err
}

func (f *BaseFlow) emitError(rc *core.RunContext, code string, err error) {
	rc.LogError("flow.error", "agent", f.agent.Name(), "code", code, "error", err.Error())
	_ = rc.EmitEvent(core.NewErrorEvent(f.agent.Name(), code, err.Error()))
}

func transferTarget(responses []core.Event) string {
	for _, ev := range responses {
		if ev.Actions.TransferToAgent != nil {
			return *ev.Actions.TransferToAgent
		}
	}

	return ""
}

func endsTurn(responses []core.Event) bool {
	for _, ev := range responses {
		if ev.Actions.SkipSummarization != nil && *ev.Actions.SkipSummarization {
			return true
		}

		if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
			return true
		}
	}

	return false
}

func drain(ch <-chan model.Response) {
	go func() {
		for range ch {
		}
	}()
}
