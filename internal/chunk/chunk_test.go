package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesGeometry(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New([]int{4, 4}, []int{2})
	assert.Error(t, err, "rank mismatch")

	_, err = New([]int{4, 0}, []int{2, 2})
	assert.Error(t, err, "zero dimension")

	arr, err := New([]int{4, 4}, []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Rank())
	assert.Equal(t, 16, arr.Elements())
}

func TestGridAndKeys(t *testing.T) {
	arr, err := New([]int{10, 512, 512}, []int{1, 256, 256})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 2, 2}, arr.Grid())
	assert.Equal(t, 40, arr.ChunkCount())

	keys := arr.Keys()
	require.Len(t, keys, 40)
	assert.Equal(t, "0.0.0", keys[0])
	assert.Equal(t, "0.0.1", keys[1])
	assert.Equal(t, "0.1.0", keys[2])
	assert.Equal(t, "9.1.1", keys[39])
}

func TestDims_TrimsEdgeChunks(t *testing.T) {
	arr, err := New([]int{5, 10}, []int{2, 4})
	require.NoError(t, err)

	dims, err := arr.Dims("0.0")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, dims)

	dims, err = arr.Dims("2.2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, dims, "last row and column are trimmed")

	_, err = arr.Dims("3.0")
	assert.Error(t, err, "coordinates outside the grid")

	_, err = arr.Dims("not-a-key")
	assert.Error(t, err)
}

func TestSetChunk_ValidatesLength(t *testing.T) {
	arr, err := New([]int{4, 4}, []int{2, 2})
	require.NoError(t, err)

	assert.Error(t, arr.SetChunk("0.0", make([]float32, 3)))
	require.NoError(t, arr.SetChunk("0.0", []float32{1, 2, 3, 4}))
	assert.Equal(t, []float32{1, 2, 3, 4}, arr.Chunk("0.0"))
	assert.Nil(t, arr.Chunk("1.1"), "unset chunk reads as nil")
}

func TestMap(t *testing.T) {
	arr, err := New([]int{2, 2}, []int{2, 1})
	require.NoError(t, err)
	require.NoError(t, arr.SetChunk("0.0", []float32{1, 3}))

	out, err := arr.Map(func(_ string, _ []int, data []float32) []float32 {
		mapped := make([]float32, len(data))
		for i, v := range data {
			mapped[i] = v * 10
		}
		return mapped
	})
	require.NoError(t, err)

	assert.Equal(t, []float32{10, 30}, out.Chunk("0.0"))
	assert.Equal(t, []float32{0, 0}, out.Chunk("0.1"), "unset chunks are materialized as zeros")
	assert.Equal(t, arr.Shape, out.Shape)
}

func TestStats(t *testing.T) {
	arr, err := New([]int{2, 2}, []int{2, 2})
	require.NoError(t, err)
	require.NoError(t, arr.SetChunk("0.0", []float32{1, 2, 3, 6}))

	min, max, mean := arr.Stats()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 6.0, max)
	assert.Equal(t, 3.0, mean)

	t.Run("unset chunks count as zeros", func(t *testing.T) {
		sparse, err := New([]int{2, 2}, []int{2, 1})
		require.NoError(t, err)
		require.NoError(t, sparse.SetChunk("0.0", []float32{4, 4}))

		min, max, mean := sparse.Stats()
		assert.Equal(t, 0.0, min)
		assert.Equal(t, 4.0, max)
		assert.Equal(t, 2.0, mean)
	})
}

func TestKeyRoundTrip(t *testing.T) {
	coords, err := ParseKey(Key([]int{0, 2, 1}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, coords)
}
