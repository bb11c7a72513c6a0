package zarrio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/nodeflow/internal/chunk"
	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/node"
)

const progressStride = 5 // report every N chunks to keep the socket quiet

// OnRunZarrWriter is the handler for the 'ZarrWriter' node type. It writes
// the array to a directory store wrapped in a single-level multiscales
// group, reporting progress as chunks land on disk.
func OnRunZarrWriter(ctx context.Context, call *node.Call) (node.Result, error) {
	logger := ctxlog.FromContext(ctx)

	arr, ok := call.Args["array"].(*chunk.Array)
	if !ok {
		return nil, fmt.Errorf("input 'array' is not a chunked array")
	}
	metadata, _ := call.Args["metadata"].(map[string]any)
	compress := call.String("compression") == "zstd"

	outputPath := derivePath(call.String("output_path"), metadata)
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("resolving output path %q: %w", outputPath, err)
	}
	logger.Info("💾 Writing store.", "path", absPath, "zstd", compress)

	if err := writeGroup(absPath, metadata, arr, compress); err != nil {
		return nil, err
	}

	call.Report(0, 100, "🚀 Starting write...")
	if err := writeChunks(ctx, absPath, arr, compress, call); err != nil {
		return nil, err
	}
	call.Report(100, 100, "✅ Done")

	logger.Info("✅ Store written.", "path", absPath, "chunks", len(arr.Keys()))
	return node.Single(absPath), nil
}

// derivePath picks the output location: an explicit path wins; otherwise a
// "<name>_processed.zarr" sibling of the source store's parent directory;
// mock sources land in the working directory.
func derivePath(explicit string, metadata map[string]any) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	source, _ := metadata["source_path"].(string)
	if source == "" || strings.Contains(source, "mock://") {
		return "output_processed.zarr"
	}
	source = strings.TrimRight(source, "/\\")
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	parent := filepath.Dir(filepath.Dir(source))
	return filepath.Join(parent, name+"_processed.zarr")
}

// writeGroup lays down the store skeleton: group marker, multiscales
// attributes and the array descriptor under level "0".
func writeGroup(root string, metadata map[string]any, arr *chunk.Array, compress bool) error {
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("clearing output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "0"), 0o755); err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	attrs := groupAttrs{Multiscales: []multiscale{{
		Version:  "0.4",
		Name:     "processed",
		Datasets: []dataset{{Path: "0"}},
		Axes:     axesFromMetadata(metadata),
	}}}

	var compressor *compressorMeta
	if compress {
		compressor = &compressorMeta{ID: "zstd", Level: 3}
	}
	meta := arrayMeta{
		ZarrFormat: zarrFormat,
		Shape:      arr.Shape,
		Chunks:     arr.ChunkShape,
		Dtype:      dtypeLittleF32,
		Compressor: compressor,
		Order:      "C",
	}

	if err := writeJSON(filepath.Join(root, ".zgroup"), groupMeta{ZarrFormat: zarrFormat}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, ".zattrs"), attrs); err != nil {
		return err
	}
	return writeJSON(filepath.Join(root, "0", ".zarray"), meta)
}

func writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// axesFromMetadata carries axes through from the source store when present,
// defaulting to the conventional t/c/z/y/x stack.
func axesFromMetadata(metadata map[string]any) []axis {
	raw, ok := metadata["axes"].([]any)
	if !ok || len(raw) == 0 {
		return defaultAxes()
	}
	axes := make([]axis, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return defaultAxes()
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		axes = append(axes, axis{Name: name, Type: typ})
	}
	return axes
}

func writeChunks(ctx context.Context, root string, arr *chunk.Array, compress bool, call *node.Call) error {
	keys := arr.Keys()
	total := len(keys)
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		dims, err := arr.Dims(key)
		if err != nil {
			return err
		}
		data := arr.Chunk(key)
		if data == nil {
			data = make([]float32, product(dims))
		}
		payload := encodeChunk(padChunk(data, dims, arr.ChunkShape), compress)
		if err := os.WriteFile(filepath.Join(root, "0", key), payload, 0o644); err != nil {
			return fmt.Errorf("writing chunk %q: %w", key, err)
		}

		done := i + 1
		progress := done * 100 / total
		if done%progressStride == 0 || progress == 100 {
			call.Report(progress, 100, fmt.Sprintf("Writing... %d%%", progress))
		}
	}
	return nil
}
