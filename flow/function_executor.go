package flow

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// FunctionExecutor executes a batch of function calls and emits one
// function response event per call, in call order. Implementations respect
// cancellation, never panic and attach tool actions to the response events.
// The emitted events are returned.
type FunctionExecutor interface {
	Execute(rc *core.RunContext, author string, tools []tool.Tool, calls []core.FunctionCall) []core.Event
}

// FunctionExecutorConfig configures the parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // < 1 means one goroutine per call
	LogStartEvents bool // log a start line per function
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs the default bounded parallel executor.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(rc *core.RunContext, author string, tools []tool.Tool, calls []core.FunctionCall) []core.Event {
	n := len(calls)
	if n == 0 {
		return nil
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Event, n)

	var wg sync.WaitGroup

	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i, fc := range calls {
		wg.Add(1)

		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.call(rc, author, tools, fc)
		}(i, fc)
	}

	wg.Wait()

	emitted := make([]core.Event, 0, n)

	for _, ev := range results {
		if err := rc.EmitEvent(ev); err != nil {
			rc.LogError("flow.function.emit.error", "agent", author, "error", err.Error())
			break
		}

		emitted = append(emitted, ev)
	}

	_ = rc.WaitForResume()

	rc.LogDebug(
		"flow.functions.batch.complete",
		"agent", author,
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return emitted
}

func (e *parallelFunctionExecutor) call(rc *core.RunContext, author string, tools []tool.Tool, fc core.FunctionCall) core.Event {
	toolCtx := core.NewToolContext(rc, fc.ID)

	if e.cfg.LogStartEvents {
		rc.LogInfo("flow.function.start", "agent", author, "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	if cerr := rc.Err(); cerr != nil {
		err = cerr
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = panicError(r)
					rc.LogError("flow.function.panic", "agent", author, "function", fc.Name, "recover", r, "stack", string(debug.Stack()))
				}
			}()

			result, err = executeTool(tools, toolCtx, fc.Name, fc.Arguments)
		}()
	}

	rc.LogInfo(
		"flow.function.executed",
		"agent", author,
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	ev := core.NewFunctionResponseEvent(author, fc.ID, fc.Name, result, err)
	toolCtx.InternalApplyActions(&ev)

	return ev
}

func panicError(r any) error { return fmt.Errorf("panic recovered: %v", r) }

func executeTool(tools []tool.Tool, toolCtx *core.ToolContext, name, args string) (any, error) {
	impl := tool.Find(tools, name)
	if impl == nil {
		return nil, tool.NewToolError(name, "tool not found", tool.CodeNotFound)
	}

	argMap := map[string]any{}

	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(name, fmt.Sprintf("invalid arguments: %v", err), tool.CodeValidation)
		}
	}

	return impl.Call(toolCtx, argMap)
}
