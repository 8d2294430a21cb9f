package grids

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSample(t *testing.T) {
	got := randomSample(10, 4, rand.New(rand.NewSource(1)))
	require.Len(t, got, 4)

	seen := make(map[int]bool)
	for _, idx := range got {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 10)
		assert.False(t, seen[idx], "index %d drawn twice", idx)
		seen[idx] = true
	}

	again := randomSample(10, 4, rand.New(rand.NewSource(1)))
	assert.Equal(t, got, again)
}

func TestFarthestPointSample(t *testing.T) {
	// Ten points on a line: wherever the walk starts, the second pick is
	// always the far end of the line.
	points := make([]float64, 0, 30)
	for i := 0; i < 10; i++ {
		points = append(points, float64(i), 0, 0)
	}

	for seed := int64(0); seed < 5; seed++ {
		got := farthestPointSample(points, 3, rand.New(rand.NewSource(seed)))
		require.Len(t, got, 3)

		seen := make(map[int]bool)
		for _, idx := range got {
			seen[idx] = true
		}
		assert.Len(t, seen, 3, "indices must be distinct, got %v", got)
		assert.True(t, seen[0] || seen[9], "expected an endpoint in %v", got)
	}
}

func TestFarthestPointSampleDeterministic(t *testing.T) {
	points := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 2, 0,
		3, 3, 3,
		-1, -1, 0,
	}
	first := farthestPointSample(points, 4, rand.New(rand.NewSource(3)))
	second := farthestPointSample(points, 4, rand.New(rand.NewSource(3)))
	assert.Equal(t, first, second)
}
