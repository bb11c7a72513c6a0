// Package arraystats provides a lightweight inspection node that summarizes
// a chunked array without copying it.
package arraystats

import (
	"context"
	"fmt"

	"github.com/vk/nodeflow/internal/chunk"
	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunArrayStats is the handler for the 'ArrayStats' node type. It is
// cheap enough to run inline on the resolver, so the type is not marked
// blocking.
func OnRunArrayStats(ctx context.Context, call *node.Call) (node.Result, error) {
	arr, ok := call.Args["array"].(*chunk.Array)
	if !ok {
		return nil, fmt.Errorf("input 'array' is not a chunked array")
	}

	min, max, mean := arr.Stats()
	ctxlog.FromContext(ctx).Info("📊 Array stats.",
		"shape", arr.Shape, "min", min, "max", max, "mean", mean)

	stats := map[string]any{
		"shape": append([]int(nil), arr.Shape...),
		"min":   min,
		"max":   max,
		"mean":  mean,
	}
	return node.Single(stats), nil
}

// Register registers the stats node type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunArrayStats", OnRunArrayStats)

	r.RegisterType(&schema.NodeType{
		Type:        "ArrayStats",
		DisplayName: "📊 Array Stats",
		Category:    "NodeFlow/Inspect",
		Description: "Computes min/max/mean over the whole array.",
		Inputs: []*schema.InputSpec{
			{Name: "array", Type: schema.TypeChunkedArray},
		},
		Outputs: []*schema.OutputSpec{
			{Name: "stats", Type: schema.TypeDict},
		},
	}, "OnRunArrayStats")
}
