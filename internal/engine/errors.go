package engine

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle among graph nodes. Path holds the
// node ids forming the loop when known.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) > 1 {
		return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Path, " -> "))
	}
	if len(e.Path) == 1 {
		return fmt.Sprintf("cyclic dependency detected involving node %q", e.Path[0])
	}
	return "cyclic dependency detected"
}

// HandlerError wraps any failure raised by a node handler, carrying the
// node's identity for the client-facing message.
type HandlerError struct {
	NodeID   string
	NodeType string
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("node %q (%s): %v", e.NodeID, e.NodeType, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
