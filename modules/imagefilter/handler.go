package imagefilter

import (
	"context"
	"fmt"

	"github.com/vk/nodeflow/internal/chunk"
	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/node"
)

// OnRunImageFilter is the handler for the 'ImageFilter' node type. Filters
// run independently per chunk over the trailing two dimensions; leading
// dimensions are treated as a stack of planes.
func OnRunImageFilter(ctx context.Context, call *node.Call) (node.Result, error) {
	logger := ctxlog.FromContext(ctx)

	arr, ok := call.Args["array"].(*chunk.Array)
	if !ok {
		return nil, fmt.Errorf("input 'array' is not a chunked array")
	}
	algorithm := call.String("algorithm")
	sigma := call.Float("sigma")

	filter, err := forAlgorithm(algorithm, sigma)
	if err != nil {
		return nil, err
	}
	logger.Info("⚡ Filtering array.", "algorithm", algorithm, "sigma", sigma)

	total := arr.ChunkCount()
	done := 0
	out, err := arr.Map(func(key string, dims []int, data []float32) []float32 {
		result := applyPlanes(filter, dims, data)
		done++
		call.Report(done, total, fmt.Sprintf("Filtering... %d/%d chunks", done, total))
		return result
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return node.Single(out), nil
}

// applyPlanes slices a chunk into 2D planes over its trailing two
// dimensions and filters each plane in place of the original data.
func applyPlanes(filter planeFilter, dims []int, data []float32) []float32 {
	h, w := 1, dims[len(dims)-1]
	if len(dims) >= 2 {
		h = dims[len(dims)-2]
	}
	planeSize := h * w
	out := make([]float32, len(data))
	for off := 0; off+planeSize <= len(data); off += planeSize {
		filter(out[off:off+planeSize], data[off:off+planeSize], w, h)
	}
	return out
}
