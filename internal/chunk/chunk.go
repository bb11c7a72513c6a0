// Package chunk implements the chunked n-dimensional float32 array that
// flows between image-pipeline nodes. It is an opaque domain value to the
// engine: never validated, coerced, or inspected outside node handlers.
package chunk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Array is an n-dimensional float32 array split into a regular grid of
// chunks. Edge chunks are trimmed to the array bounds. Chunks are keyed by
// their grid coordinates joined with dots ("0.2.1"), matching the on-disk
// chunk naming of the store format.
type Array struct {
	Shape      []int
	ChunkShape []int

	chunks map[string][]float32
}

// New creates an empty array with the given geometry.
func New(shape, chunkShape []int) (*Array, error) {
	if len(shape) == 0 || len(shape) != len(chunkShape) {
		return nil, fmt.Errorf("chunk: shape rank %d and chunk rank %d must match and be non-zero", len(shape), len(chunkShape))
	}
	for i := range shape {
		if shape[i] <= 0 || chunkShape[i] <= 0 {
			return nil, fmt.Errorf("chunk: dimension %d must be positive (shape=%d chunk=%d)", i, shape[i], chunkShape[i])
		}
	}
	return &Array{
		Shape:      append([]int(nil), shape...),
		ChunkShape: append([]int(nil), chunkShape...),
		chunks:     make(map[string][]float32),
	}, nil
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Elements returns the total element count of the array.
func (a *Array) Elements() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Grid returns the number of chunks along each dimension.
func (a *Array) Grid() []int {
	grid := make([]int, len(a.Shape))
	for i := range a.Shape {
		grid[i] = (a.Shape[i] + a.ChunkShape[i] - 1) / a.ChunkShape[i]
	}
	return grid
}

// ChunkCount returns the total number of chunks.
func (a *Array) ChunkCount() int {
	n := 1
	for _, g := range a.Grid() {
		n *= g
	}
	return n
}

// Keys returns every chunk key in row-major grid order.
func (a *Array) Keys() []string {
	grid := a.Grid()
	total := a.ChunkCount()
	keys := make([]string, 0, total)
	coords := make([]int, len(grid))
	for i := 0; i < total; i++ {
		keys = append(keys, Key(coords))
		for d := len(coords) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < grid[d] {
				break
			}
			coords[d] = 0
		}
	}
	return keys
}

// Key renders grid coordinates as a chunk key.
func Key(coords []int) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// ParseKey parses a chunk key back into grid coordinates.
func ParseKey(key string) ([]int, error) {
	parts := strings.Split(key, ".")
	coords := make([]int, len(parts))
	for i, p := range parts {
		c, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("chunk: bad key %q: %w", key, err)
		}
		coords[i] = c
	}
	return coords, nil
}

// Dims returns the actual dimensions of the chunk at key: the chunk shape,
// trimmed at the array boundary for edge chunks.
func (a *Array) Dims(key string) ([]int, error) {
	coords, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	if len(coords) != a.Rank() {
		return nil, fmt.Errorf("chunk: key %q has rank %d, array has rank %d", key, len(coords), a.Rank())
	}
	grid := a.Grid()
	dims := make([]int, a.Rank())
	for i, c := range coords {
		if c < 0 || c >= grid[i] {
			return nil, fmt.Errorf("chunk: key %q out of grid bounds", key)
		}
		start := c * a.ChunkShape[i]
		dims[i] = a.ChunkShape[i]
		if start+dims[i] > a.Shape[i] {
			dims[i] = a.Shape[i] - start
		}
	}
	return dims, nil
}

// Chunk returns the data stored at key, or nil when unset.
func (a *Array) Chunk(key string) []float32 {
	return a.chunks[key]
}

// SetChunk stores chunk data, validating its length against the chunk's
// trimmed dimensions.
func (a *Array) SetChunk(key string, data []float32) error {
	dims, err := a.Dims(key)
	if err != nil {
		return err
	}
	want := 1
	for _, d := range dims {
		want *= d
	}
	if len(data) != want {
		return fmt.Errorf("chunk: key %q expects %d elements, got %d", key, want, len(data))
	}
	a.chunks[key] = data
	return nil
}

// Map produces a new array of identical geometry by transforming each chunk
// independently. Unset chunks are materialized as zero-filled slices before
// fn runs, mirroring a zero fill value.
func (a *Array) Map(fn func(key string, dims []int, data []float32) []float32) (*Array, error) {
	out, err := New(a.Shape, a.ChunkShape)
	if err != nil {
		return nil, err
	}
	for _, key := range a.Keys() {
		dims, err := a.Dims(key)
		if err != nil {
			return nil, err
		}
		data := a.chunks[key]
		if data == nil {
			n := 1
			for _, d := range dims {
				n *= d
			}
			data = make([]float32, n)
		}
		if err := out.SetChunk(key, fn(key, dims, data)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Stats returns the minimum, maximum, and mean over all stored elements.
// Unset chunks count as zeros.
func (a *Array) Stats() (min, max, mean float64) {
	total := a.Elements()
	if total == 0 {
		return 0, 0, 0
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	var sum float64
	seen := 0
	for _, key := range a.Keys() {
		data := a.chunks[key]
		if data == nil {
			dims, err := a.Dims(key)
			if err != nil {
				continue
			}
			n := 1
			for _, d := range dims {
				n *= d
			}
			if 0 < min {
				min = 0
			}
			if 0 > max {
				max = 0
			}
			seen += n
			continue
		}
		for _, v := range data {
			f := float64(v)
			if f < min {
				min = f
			}
			if f > max {
				max = f
			}
			sum += f
			seen++
		}
	}
	if seen == 0 {
		return 0, 0, 0
	}
	return min, max, sum / float64(seen)
}
