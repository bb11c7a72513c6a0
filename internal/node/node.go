// Package node defines the contract between the execution engine and node
// handler implementations.
package node

import "context"

// ProgressFunc reports fractional completion of a long-running handler.
// The engine normalizes (current, total) into a 0-100 percentage bound to
// the node's identity; total == 0 is treated as 1. Implementations provided
// by the engine are safe to call from any goroutine.
type ProgressFunc func(current, total int, message string)

// Call carries the validated arguments for one handler invocation.
//
// Args contains every parameter the node type declares, populated and
// coerced by the input validator. Progress is non-nil only when the node
// type is registered with AcceptsProgress.
type Call struct {
	Args     map[string]any
	Progress ProgressFunc
}

// String returns the named argument as a string, or "" when absent or of
// another type.
func (c *Call) String(name string) string {
	s, _ := c.Args[name].(string)
	return s
}

// Int returns the named argument as an int, accepting the numeric types the
// coercion pass may have produced.
func (c *Call) Int(name string) int {
	switch v := c.Args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Float returns the named argument as a float64, accepting the numeric
// types the coercion pass may have produced.
func (c *Call) Float(name string) float64 {
	switch v := c.Args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Report invokes the progress callback when one is attached.
func (c *Call) Report(current, total int, message string) {
	if c.Progress != nil {
		c.Progress(current, total, message)
	}
}

// Result is the ordered sequence of output-slot values a handler produces.
type Result []any

// Slot selects an output slot. An out-of-range index falls back to slot 0,
// which also covers single-value results where the index is ignored.
func (r Result) Slot(i int) any {
	if len(r) == 0 {
		return nil
	}
	if i < 0 || i >= len(r) {
		return r[0]
	}
	return r[i]
}

// Single wraps a lone value in a one-slot Result.
func Single(v any) Result {
	return Result{v}
}

// Handler is the invocation entry point of a node type. It receives the
// validated call and returns the node's output slots. Blocking handlers run
// on the shared worker pool; cooperative ones run inline on the resolver.
type Handler func(ctx context.Context, call *Call) (Result, error)
