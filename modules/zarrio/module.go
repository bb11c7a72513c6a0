// Package zarrio provides the reader and writer nodes for directory-based
// zarr stores holding chunked float32 arrays, with optional OME multiscales
// metadata.
package zarrio

import (
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the reader and writer node types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunZarrReader", OnRunZarrReader)
	r.RegisterHandler("OnRunZarrWriter", OnRunZarrWriter)

	r.RegisterType(&schema.NodeType{
		Type:        "ZarrReader",
		DisplayName: "📂 Zarr Reader",
		Category:    "NodeFlow/IO",
		Description: "Loads a chunked array from a zarr directory store. Falls back to a mock array when the path does not exist.",
		Blocking:    true,
		Inputs: []*schema.InputSpec{
			{Name: "file_path", Type: schema.TypeString, Default: ""},
		},
		Outputs: []*schema.OutputSpec{
			{Name: "array", Type: schema.TypeChunkedArray},
			{Name: "metadata", Type: schema.TypeDict},
		},
	}, "OnRunZarrReader")

	r.RegisterType(&schema.NodeType{
		Type:            "ZarrWriter",
		DisplayName:     "💾 Zarr Writer",
		Category:        "NodeFlow/IO",
		Description:     "Writes a chunked array to a zarr directory store, reporting write progress.",
		Terminal:        true,
		Blocking:        true,
		AcceptsProgress: true,
		Inputs: []*schema.InputSpec{
			{Name: "array", Type: schema.TypeChunkedArray},
			{Name: "metadata", Type: schema.TypeDict},
			{Name: "compression", Type: schema.TypeString, Options: []string{"default", "zstd"}},
		},
		OptionalInputs: []*schema.InputSpec{
			// Logically optional: empty means "derive from the source path".
			{Name: "output_path", Type: schema.TypeString, Default: "", Placeholder: "empty = next to the source store"},
		},
		Outputs: []*schema.OutputSpec{
			{Name: "saved_path", Type: schema.TypeString},
		},
	}, "OnRunZarrWriter")
}
