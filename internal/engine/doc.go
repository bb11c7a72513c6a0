// Package engine executes node graphs: it resolves each requested node's
// dependencies recursively, validates and coerces inputs against the node
// type's schema, dispatches handlers inline or onto the bounded worker
// pool, and memoizes every result so a node runs at most once per run.
// Independent branches resolve in parallel; the first failure anywhere
// aborts the whole run with a single error event.
package engine
