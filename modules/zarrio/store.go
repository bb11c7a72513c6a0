package zarrio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// On-disk store layout (v2 style): a directory per array holding a .zarray
// descriptor and one file per chunk, named by dot-joined grid coordinates.
// A group directory holds .zgroup plus .zattrs with multiscales metadata
// pointing at its arrays.

const (
	zarrFormat     = 2
	dtypeLittleF32 = "<f4"
	dtypeBigF32    = ">f4"
)

type arrayMeta struct {
	ZarrFormat int             `json:"zarr_format"`
	Shape      []int           `json:"shape"`
	Chunks     []int           `json:"chunks"`
	Dtype      string          `json:"dtype"`
	Compressor *compressorMeta `json:"compressor"`
	FillValue  float64         `json:"fill_value"`
	Order      string          `json:"order"`
	Filters    []any           `json:"filters"`
}

type compressorMeta struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

type groupMeta struct {
	ZarrFormat int `json:"zarr_format"`
}

type groupAttrs struct {
	Multiscales []multiscale `json:"multiscales"`
}

type multiscale struct {
	Version  string    `json:"version"`
	Name     string    `json:"name"`
	Datasets []dataset `json:"datasets"`
	Axes     []axis    `json:"axes,omitempty"`
}

type dataset struct {
	Path string `json:"path"`
}

type axis struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func defaultAxes() []axis {
	return []axis{
		{Name: "t", Type: "time"},
		{Name: "c", Type: "channel"},
		{Name: "z", Type: "space"},
		{Name: "y", Type: "space"},
		{Name: "x", Type: "space"},
	}
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// encodeChunk serializes a full-sized chunk buffer as little-endian float32,
// compressing it when requested.
func encodeChunk(data []float32, compress bool) []byte {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	if compress {
		return zstdEncoder.EncodeAll(raw, nil)
	}
	return raw
}

// decodeChunk deserializes a chunk file into float32 values, honoring the
// declared byte order and compressor.
func decodeChunk(data []byte, bigEndian, compressed bool) ([]float32, error) {
	if compressed {
		raw, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing chunk: %w", err)
		}
		data = raw
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("chunk payload of %d bytes is not float32-aligned", len(data))
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(order.Uint32(data[4*i:]))
	}
	return out, nil
}

// trimChunk copies the edge-trimmed region dims out of a row-major buffer
// shaped chunkShape.
func trimChunk(full []float32, chunkShape, dims []int) []float32 {
	if sameDims(chunkShape, dims) {
		return full
	}
	out := make([]float32, product(dims))
	coords := make([]int, len(dims))
	for i := range out {
		out[i] = full[offsetOf(coords, chunkShape)]
		advance(coords, dims)
	}
	return out
}

// padChunk embeds an edge-trimmed buffer into a zero-filled full-sized
// chunk buffer.
func padChunk(data []float32, dims, chunkShape []int) []float32 {
	if sameDims(chunkShape, dims) {
		return data
	}
	out := make([]float32, product(chunkShape))
	coords := make([]int, len(dims))
	for i := range data {
		out[offsetOf(coords, chunkShape)] = data[i]
		advance(coords, dims)
	}
	return out
}

func sameDims(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// offsetOf maps n-d coordinates to a row-major linear offset within shape.
func offsetOf(coords, shape []int) int {
	off := 0
	for i, c := range coords {
		off = off*shape[i] + c
	}
	return off
}

// advance increments coords row-major within bounds.
func advance(coords, bounds []int) {
	for i := len(coords) - 1; i >= 0; i-- {
		coords[i]++
		if coords[i] < bounds[i] {
			return
		}
		coords[i] = 0
	}
}
