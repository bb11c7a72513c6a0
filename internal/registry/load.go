package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/fsutil"
	"github.com/vk/nodeflow/internal/schema"
)

// manifestFile is the top-level structure of a node manifest file.
type manifestFile struct {
	Nodes []*manifestNode `hcl:"node,block"`
}

// manifestNode declares one node type and the registered handler it binds to.
type manifestNode struct {
	Type            string            `hcl:"type,label"`
	Handler         string            `hcl:"handler"`
	DisplayName     string            `hcl:"display_name,optional"`
	Category        string            `hcl:"category,optional"`
	Description     string            `hcl:"description,optional"`
	Terminal        bool              `hcl:"terminal,optional"`
	Blocking        bool              `hcl:"blocking,optional"`
	AcceptsProgress bool              `hcl:"accepts_progress,optional"`
	Inputs          []*manifestInput  `hcl:"input,block"`
	OptionalInputs  []*manifestInput  `hcl:"optional_input,block"`
	Outputs         []*manifestOutput `hcl:"output,block"`
}

type manifestInput struct {
	Name        string     `hcl:"name,label"`
	Type        string     `hcl:"type"`
	Default     *cty.Value `hcl:"default,optional"`
	Options     []string   `hcl:"options,optional"`
	Min         *float64   `hcl:"min,optional"`
	Max         *float64   `hcl:"max,optional"`
	Multiline   bool       `hcl:"multiline,optional"`
	Placeholder string     `hcl:"placeholder,optional"`
}

type manifestOutput struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

// LoadManifests parses every .hcl manifest under path and registers the node
// types it declares. Handlers referenced by a manifest must already be
// registered; a dangling reference is a configuration error, not a panic.
func (r *Registry) LoadManifests(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading node manifests...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		logger.Error("Failed to walk manifests directory", "path", path, "error", err)
		return err
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", path)
		return nil
	}

	parser := hclparse.NewParser()
	loaded := 0
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse manifest file %s: %w", filePath, diags)
		}

		var mf manifestFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &mf); diags.HasErrors() {
			return fmt.Errorf("failed to decode manifest file %s: %w", filePath, diags)
		}

		for _, mn := range mf.Nodes {
			nt, err := mn.toNodeType()
			if err != nil {
				return fmt.Errorf("manifest %s: node %q: %w", filePath, mn.Type, err)
			}
			if err := r.addType(nt, mn.Handler); err != nil {
				return fmt.Errorf("manifest %s: %w", filePath, err)
			}
			loaded++
		}
		logger.Debug("Loaded node manifests from file.", "file", filePath)
	}

	logger.Info("Registry manifests loaded.", "node_types_loaded", loaded)
	return nil
}

// toNodeType converts the decoded HCL blocks into the runtime descriptor,
// lowering cty default values to plain Go values.
func (mn *manifestNode) toNodeType() (*schema.NodeType, error) {
	nt := &schema.NodeType{
		Type:            mn.Type,
		DisplayName:     mn.DisplayName,
		Category:        mn.Category,
		Description:     mn.Description,
		Terminal:        mn.Terminal,
		Blocking:        mn.Blocking,
		AcceptsProgress: mn.AcceptsProgress,
	}
	if nt.DisplayName == "" {
		nt.DisplayName = mn.Type
	}

	for _, in := range mn.Inputs {
		spec, err := in.toInputSpec()
		if err != nil {
			return nil, err
		}
		nt.Inputs = append(nt.Inputs, spec)
	}
	for _, in := range mn.OptionalInputs {
		spec, err := in.toInputSpec()
		if err != nil {
			return nil, err
		}
		nt.OptionalInputs = append(nt.OptionalInputs, spec)
	}
	for _, out := range mn.Outputs {
		nt.Outputs = append(nt.Outputs, &schema.OutputSpec{Name: out.Name, Type: out.Type})
	}
	return nt, nil
}

func (in *manifestInput) toInputSpec() (*schema.InputSpec, error) {
	spec := &schema.InputSpec{
		Name:        in.Name,
		Type:        in.Type,
		Options:     in.Options,
		Min:         in.Min,
		Max:         in.Max,
		Multiline:   in.Multiline,
		Placeholder: in.Placeholder,
	}
	if in.Default != nil {
		def, err := ctyToGo(*in.Default)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		spec.Default = def
	}
	return spec, nil
}

// ctyToGo converts a cty.Value to a plain Go value.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	if val.Type().IsPrimitiveType() {
		switch val.Type() {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", val.Type().FriendlyName())
		}
	}
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() {
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty type for conversion: %s", val.Type().FriendlyName())
}
