package engine

import (
	"context"
	"fmt"

	"github.com/vk/nodeflow/internal/events"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/schema"
)

type outcome struct {
	result node.Result
	err    error
}

// dispatch invokes a node's handler with the prepared arguments. Blocking
// handlers run on the shared worker pool with the caller suspended until a
// slot reports completion; cooperative handlers run inline. Any handler
// failure, panics included, comes back as a *HandlerError.
func (e *Engine) dispatch(ctx context.Context, nodeID string, rn *registry.RegisteredNode, args map[string]any, sink events.Sink) (node.Result, error) {
	manifest := rn.Manifest

	call := &node.Call{Args: filterArgs(manifest, args)}
	if manifest.AcceptsProgress {
		call.Progress = progressFunc(nodeID, sink)
	}

	var result node.Result
	var err error
	if manifest.Blocking {
		out := make(chan outcome, 1)
		if perr := e.pool.Submit(ctx, func() {
			res, ierr := invoke(ctx, rn.Fn, call)
			out <- outcome{result: res, err: ierr}
		}); perr != nil {
			return nil, perr
		}
		o := <-out
		result, err = o.result, o.err
	} else {
		result, err = invoke(ctx, rn.Fn, call)
	}

	if err != nil {
		return nil, &HandlerError{NodeID: nodeID, NodeType: manifest.Type, Err: err}
	}
	return result, nil
}

// filterArgs passes only the parameters the node type declares; anything
// else resolved upstream is silently dropped so a handler can ignore inputs
// it does not need.
func filterArgs(nt *schema.NodeType, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for name, v := range args {
		if nt.Input(name) != nil {
			out[name] = v
		}
	}
	return out
}

// progressFunc binds a progress callback to a node identity, normalizing
// (current, total) to a 0-100 percentage. A zero total counts as one so a
// misbehaving handler cannot divide by zero. The sink hand-off is the only
// cross-goroutine channel; worker threads never touch resolver state.
func progressFunc(nodeID string, sink events.Sink) node.ProgressFunc {
	return func(current, total int, message string) {
		if total == 0 {
			total = 1
		}
		pct := int(float64(current) / float64(total) * 100)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		sink.Emit(events.Progress(nodeID, pct, message))
	}
}

// invoke calls the handler, converting a panic into a plain error. Node
// implementations are not trusted to be well-behaved.
func invoke(ctx context.Context, fn node.Handler, call *node.Call) (result node.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return fn(ctx, call)
}
