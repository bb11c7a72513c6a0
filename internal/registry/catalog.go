package registry

import "github.com/vk/nodeflow/internal/schema"

// InputInfo is the catalog rendering of one input parameter.
type InputInfo struct {
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Default     any      `json:"default,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// NodeInputs groups a node type's catalog inputs by requiredness.
type NodeInputs struct {
	Required map[string]InputInfo `json:"required"`
	Optional map[string]InputInfo `json:"optional"`
}

// NodeInfo is the capability-discovery record for one node type, served to
// remote clients so they can render and wire nodes without compiled-in
// knowledge.
type NodeInfo struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Input       NodeInputs `json:"input"`
	Output      []string   `json:"output"`
	OutputName  []string   `json:"output_name"`
	OutputNode  bool       `json:"output_node"`
}

// Catalog builds the full capability listing of the registry.
func (r *Registry) Catalog() map[string]NodeInfo {
	info := make(map[string]NodeInfo, len(r.types))
	for name, rn := range r.types {
		nt := rn.Manifest
		ni := NodeInfo{
			Name:        name,
			DisplayName: nt.DisplayName,
			Category:    nt.Category,
			Description: nt.Description,
			Input: NodeInputs{
				Required: inputInfos(nt.Inputs),
				Optional: inputInfos(nt.OptionalInputs),
			},
			Output:     nt.OutputTypes(),
			OutputName: nt.OutputNames(),
			OutputNode: nt.Terminal,
		}
		if ni.DisplayName == "" {
			ni.DisplayName = name
		}
		if ni.Description == "" {
			ni.Description = "No description."
		}
		info[name] = ni
	}
	return info
}

func inputInfos(specs []*schema.InputSpec) map[string]InputInfo {
	out := make(map[string]InputInfo, len(specs))
	for _, in := range specs {
		out[in.Name] = InputInfo{
			Type:        in.Type,
			Options:     in.Options,
			Default:     in.Default,
			Min:         in.Min,
			Max:         in.Max,
			Multiline:   in.Multiline,
			Placeholder: in.Placeholder,
		}
	}
	return out
}
