// Package schema describes node types: the declarative input/output
// contracts the registry holds and the input validator enforces.
package schema

// Type tags for input and output slots. The primitive tags participate in
// validation and coercion; everything else is an opaque domain type that is
// passed through untouched (an opaque value is never "empty" and never
// coerced, whatever its shape).
const (
	TypeString = "STRING"
	TypeInt    = "INT"
	TypeFloat  = "FLOAT"
	TypeBool   = "BOOL"

	TypeDict         = "DICT"
	TypeChunkedArray = "CHUNKED_ARRAY"
)

// InputSpec declares a single input parameter of a node type.
type InputSpec struct {
	Name string
	// Type is one of the tags above, or an opaque domain tag.
	Type string
	// Default substitutes a missing or empty value. nil means no default.
	Default any
	// Options enumerates the allowed values of a choice parameter. When set,
	// the first option doubles as the fallback default.
	Options []string
	// Min and Max are advisory constraint metadata surfaced in the catalog.
	Min *float64
	Max *float64
	// Multiline and Placeholder are rendering hints for clients.
	Multiline   bool
	Placeholder string
}

// OutputSpec declares one output slot of a node type.
type OutputSpec struct {
	Name string
	Type string
}

// NodeType is the handler descriptor for one node type: its input schema,
// output arity, and invocation capabilities.
type NodeType struct {
	Type        string
	DisplayName string
	Category    string
	Description string

	// Terminal marks an output node: a run resolves every terminal node
	// present in the graph.
	Terminal bool
	// Blocking routes the handler through the bounded worker pool instead of
	// invoking it inline on the resolver.
	Blocking bool
	// AcceptsProgress attaches a progress callback to the handler's call.
	// Declared at registration time, never inferred.
	AcceptsProgress bool

	Inputs         []*InputSpec
	OptionalInputs []*InputSpec
	Outputs        []*OutputSpec
}

// Input looks up a declared parameter by name across required and optional
// inputs.
func (nt *NodeType) Input(name string) *InputSpec {
	for _, in := range nt.Inputs {
		if in.Name == name {
			return in
		}
	}
	for _, in := range nt.OptionalInputs {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// OutputArity returns the number of declared output slots.
func (nt *NodeType) OutputArity() int {
	return len(nt.Outputs)
}

// OutputTypes returns the declared output type tags in slot order.
func (nt *NodeType) OutputTypes() []string {
	types := make([]string, 0, len(nt.Outputs))
	for _, out := range nt.Outputs {
		types = append(types, out.Type)
	}
	return types
}

// OutputNames returns the declared output slot names in slot order, falling
// back to the type tag for unnamed slots.
func (nt *NodeType) OutputNames() []string {
	names := make([]string, 0, len(nt.Outputs))
	for _, out := range nt.Outputs {
		if out.Name != "" {
			names = append(names, out.Name)
		} else {
			names = append(names, out.Type)
		}
	}
	return names
}
