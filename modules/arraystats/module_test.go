package arraystats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/chunk"
	"github.com/vk/nodeflow/internal/node"
)

func TestOnRunArrayStats(t *testing.T) {
	arr, err := chunk.New([]int{2, 2}, []int{2, 2})
	require.NoError(t, err)
	require.NoError(t, arr.SetChunk("0.0", []float32{1, 2, 3, 6}))

	result, err := OnRunArrayStats(context.Background(), &node.Call{
		Args: map[string]any{"array": arr},
	})
	require.NoError(t, err)

	stats, ok := result.Slot(0).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, stats["min"])
	assert.Equal(t, 6.0, stats["max"])
	assert.Equal(t, 3.0, stats["mean"])
	assert.Equal(t, []int{2, 2}, stats["shape"])
}

func TestOnRunArrayStats_RejectsMissingArray(t *testing.T) {
	_, err := OnRunArrayStats(context.Background(), &node.Call{Args: map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a chunked array")
}
