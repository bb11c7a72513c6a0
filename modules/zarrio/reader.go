package zarrio

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/vk/nodeflow/internal/chunk"
	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/node"
)

const mockSourcePath = "mock://random"

// OnRunZarrReader is the handler for the 'ZarrReader' node type. It loads a
// chunked array from a directory store, resolving the array location through
// OME multiscales metadata when present.
func OnRunZarrReader(ctx context.Context, call *node.Call) (node.Result, error) {
	logger := ctxlog.FromContext(ctx)
	path := call.String("file_path")
	logger.Info("📂 Reading store.", "path", path)

	if _, err := os.Stat(path); err != nil {
		logger.Warn("Store path does not exist, serving a mock array.", "path", path)
		return mockArray()
	}

	arrayDir, err := locateArray(ctx, path)
	if err != nil {
		return nil, err
	}

	meta, err := readArrayMeta(arrayDir)
	if err != nil {
		return nil, err
	}

	arr, err := readArray(arrayDir, meta)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	logger.Info("✅ Store loaded.", "shape", arr.Shape, "chunks", arr.ChunkShape)

	metadata := map[string]any{
		"source_path": absPath,
		"shape":       append([]int(nil), arr.Shape...),
		"dtype":       "float32",
	}
	return node.Result{arr, metadata}, nil
}

// locateArray resolves the array directory within a store: an OME
// multiscales attribute wins, then a root-level array, then the
// conventional "0" sublevel.
func locateArray(ctx context.Context, root string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if raw, err := os.ReadFile(filepath.Join(root, ".zattrs")); err == nil {
		var attrs groupAttrs
		if err := json.Unmarshal(raw, &attrs); err == nil &&
			len(attrs.Multiscales) > 0 && len(attrs.Multiscales[0].Datasets) > 0 {
			p := attrs.Multiscales[0].Datasets[0].Path
			logger.Debug("Multiscales metadata found.", "dataset_path", p)
			return filepath.Join(root, p), nil
		}
	}

	if _, err := os.Stat(filepath.Join(root, ".zarray")); err == nil {
		return root, nil
	}
	if _, err := os.Stat(filepath.Join(root, "0", ".zarray")); err == nil {
		return filepath.Join(root, "0"), nil
	}
	return "", fmt.Errorf("no array found in store %q", root)
}

func readArrayMeta(arrayDir string) (*arrayMeta, error) {
	raw, err := os.ReadFile(filepath.Join(arrayDir, ".zarray"))
	if err != nil {
		return nil, fmt.Errorf("reading array descriptor: %w", err)
	}
	var meta arrayMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parsing array descriptor: %w", err)
	}
	if meta.Dtype != dtypeLittleF32 && meta.Dtype != dtypeBigF32 {
		return nil, fmt.Errorf("unsupported dtype %q, only float32 stores are supported", meta.Dtype)
	}
	if meta.Order != "" && meta.Order != "C" {
		return nil, fmt.Errorf("unsupported chunk order %q", meta.Order)
	}
	if meta.Compressor != nil && meta.Compressor.ID != "zstd" {
		return nil, fmt.Errorf("unsupported compressor %q", meta.Compressor.ID)
	}
	return &meta, nil
}

// readArray materializes every chunk file present on disk. Missing chunk
// files are left unset and read back as the fill value (zero).
func readArray(arrayDir string, meta *arrayMeta) (*chunk.Array, error) {
	arr, err := chunk.New(meta.Shape, meta.Chunks)
	if err != nil {
		return nil, err
	}
	bigEndian := meta.Dtype == dtypeBigF32
	compressed := meta.Compressor != nil

	for _, key := range arr.Keys() {
		raw, err := os.ReadFile(filepath.Join(arrayDir, key))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading chunk %q: %w", key, err)
		}
		data, err := decodeChunk(raw, bigEndian, compressed)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", key, err)
		}
		if len(data) != product(meta.Chunks) {
			return nil, fmt.Errorf("chunk %q holds %d values, expected %d", key, len(data), product(meta.Chunks))
		}
		dims, err := arr.Dims(key)
		if err != nil {
			return nil, err
		}
		if err := arr.SetChunk(key, trimChunk(data, meta.Chunks, dims)); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// mockArray fabricates a small random volume so graphs stay runnable
// without real data on disk.
func mockArray() (node.Result, error) {
	arr, err := chunk.New([]int{10, 512, 512}, []int{1, 256, 256})
	if err != nil {
		return nil, err
	}
	for _, key := range arr.Keys() {
		dims, err := arr.Dims(key)
		if err != nil {
			return nil, err
		}
		data := make([]float32, product(dims))
		for i := range data {
			data[i] = float32(rand.Intn(256))
		}
		if err := arr.SetChunk(key, data); err != nil {
			return nil, err
		}
	}
	metadata := map[string]any{"source_path": mockSourcePath}
	return node.Result{arr, metadata}, nil
}
