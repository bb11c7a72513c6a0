// Package graph holds the run-request data model: a directed graph of typed
// nodes whose inputs are literals or references to another node's output
// slot. A Graph is immutable for the duration of one execution request and
// is never shared across concurrent runs.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref addresses one output slot of another node in the same graph.
type Ref struct {
	Source string
	Slot   int
}

// InputValue is either a literal value or a reference to an upstream output
// slot. Exactly one of Literal and Ref is meaningful; Ref wins when set.
type InputValue struct {
	Literal any
	Ref     *Ref
}

// UnmarshalJSON implements the wire rule: a two-element array whose first
// element is a string and whose second is a number decodes as a reference;
// any other value is kept as a literal.
func (iv *InputValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		if len(parts) == 2 {
			var source string
			var slot float64
			if json.Unmarshal(parts[0], &source) == nil && json.Unmarshal(parts[1], &slot) == nil {
				iv.Ref = &Ref{Source: source, Slot: int(slot)}
				return nil
			}
		}
	}
	return json.Unmarshal(data, &iv.Literal)
}

// MarshalJSON mirrors UnmarshalJSON for round-tripping in tests and logs.
func (iv InputValue) MarshalJSON() ([]byte, error) {
	if iv.Ref != nil {
		return json.Marshal([]any{iv.Ref.Source, iv.Ref.Slot})
	}
	return json.Marshal(iv.Literal)
}

// NodeSpec describes one node of the graph: its type name and its inputs.
type NodeSpec struct {
	Type   string                `json:"type"`
	Inputs map[string]InputValue `json:"inputs"`
}

// Graph maps node identifiers to node specs, preserving the declaration
// order of the request body. Order matters: when no node type in the graph
// is marked terminal, the last-declared node is resolved as a fallback.
type Graph struct {
	nodes map[string]*NodeSpec
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*NodeSpec)}
}

// Add appends a node, keeping declaration order. Re-adding an id replaces
// the node spec without changing its position.
func (g *Graph) Add(id string, spec *NodeSpec) {
	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}
	g.nodes[id] = spec
}

// Node looks up a node spec by id.
func (g *Graph) Node(id string) (*NodeSpec, bool) {
	spec, ok := g.nodes[id]
	return spec, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Order returns the node ids in declaration order.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Last returns the id of the last-declared node.
func (g *Graph) Last() (string, bool) {
	if len(g.order) == 0 {
		return "", false
	}
	return g.order[len(g.order)-1], true
}

// UnmarshalJSON decodes the graph object token by token so the declaration
// order of node ids survives the trip through a JSON object.
func (g *Graph) UnmarshalJSON(data []byte) error {
	g.nodes = make(map[string]*NodeSpec)
	g.order = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("graph: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("graph: expected node id, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("graph: node %q: %w", id, err)
		}
		spec := &NodeSpec{}
		if err := json.Unmarshal(raw, spec); err != nil {
			return fmt.Errorf("graph: node %q: %w", id, err)
		}
		g.Add(id, spec)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the graph as a JSON object in declaration order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.nodes[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
