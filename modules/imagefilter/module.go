// Package imagefilter provides the per-chunk image processing node.
package imagefilter

import (
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the filter node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunImageFilter", OnRunImageFilter)

	minSigma, maxSigma := 0.1, 20.0
	r.RegisterType(&schema.NodeType{
		Type:            "ImageFilter",
		DisplayName:     "⚡ Image Filter",
		Category:        "NodeFlow/Process",
		Description:     "Applies a 2D filter to every chunk of the array.",
		Blocking:        true,
		AcceptsProgress: true,
		Inputs: []*schema.InputSpec{
			{Name: "array", Type: schema.TypeChunkedArray},
			{Name: "algorithm", Type: schema.TypeString, Options: []string{"gaussian", "median", "sobel", "invert"}},
			{Name: "sigma", Type: schema.TypeFloat, Default: 1.0, Min: &minSigma, Max: &maxSigma},
		},
		Outputs: []*schema.OutputSpec{
			{Name: "processed", Type: schema.TypeChunkedArray},
		},
	}, "OnRunImageFilter")
}
