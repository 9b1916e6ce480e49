package dpmeans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeCase_SinglePoint(t *testing.T) {
	data := [][]float64{{1.0, 2.0}}
	result, err := Cluster(data, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, result.Centers, 1)
	assert.Equal(t, []float64{1.0, 2.0}, result.Centers[0])
	assert.Equal(t, []int{0}, result.Labels)
	assert.Equal(t, []int{1}, result.Counts)
	assert.Zero(t, result.Inertia)
	assert.Equal(t, 1.0, result.Objective)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, StatusConverged, result.Status)
}

func TestEdgeCase_SinglePointStream(t *testing.T) {
	result, err := FitStream([][]float64{{3}}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}}, result.Centers)
	assert.Equal(t, []int{0}, result.Labels)
	assert.Zero(t, result.Inertia)
}

func TestEdgeCase_AllIdenticalPoints(t *testing.T) {
	data := make([][]float64, 10)
	for i := range data {
		data[i] = []float64{5.0, 5.0}
	}
	cfg := DefaultConfig()
	cfg.InitialClusters = 3

	result, err := Cluster(data, cfg)
	require.NoError(t, err)

	// Every seed sits on the same spot; the lowest index takes all points and
	// the other two are compacted away.
	require.Len(t, result.Centers, 1)
	assert.Equal(t, []float64{5.0, 5.0}, result.Centers[0])
	assert.Equal(t, []int{10}, result.Counts)
	for i, l := range result.Labels {
		assert.Equal(t, 0, l, "label %d", i)
	}
	assert.Equal(t, StatusConverged, result.Status)
}

func TestEdgeCase_InitialClustersAboveN(t *testing.T) {
	data := [][]float64{{0, 0}, {0.1, 0}}
	cfg := DefaultConfig()
	cfg.InitialClusters = 50
	cfg.Init = InitRandom

	result, err := Cluster(data, cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Centers), 2)
}

func TestEdgeCase_LaterPointsSeeSpawnedClusters(t *testing.T) {
	data := [][]float64{{0}, {10}, {10.5}}
	cfg := DefaultConfig()
	cfg.Init = InitMean

	result, err := Cluster(data, cfg)
	require.NoError(t, err)

	// The mean seed (about 6.8) is too far from everything, so the first two
	// points spawn and the third joins the cluster spawned by the second.
	require.Len(t, result.Centers, 2)
	assert.Equal(t, result.Labels[1], result.Labels[2])
	assert.NotEqual(t, result.Labels[0], result.Labels[1])
	assert.InDelta(t, 10.25, result.Centers[result.Labels[1]][0], floatTol)
}

func TestEdgeCase_OneDimensional(t *testing.T) {
	data := [][]float64{{1}, {1.2}, {0.9}, {50}, {50.3}}
	cfg := DefaultConfig()
	cfg.Delta = 4

	result, err := Cluster(data, cfg)
	require.NoError(t, err)
	require.Len(t, result.Centers, 2)
	assert.Equal(t, result.Labels[0], result.Labels[2])
	assert.Equal(t, result.Labels[3], result.Labels[4])
}

func TestEdgeCase_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		data [][]float64
	}{
		{"nil", nil},
		{"empty", [][]float64{}},
		{"zero dimensions", [][]float64{{}, {}}},
		{"NaN", [][]float64{{0, 0}, {math.NaN(), 1}}},
		{"+Inf", [][]float64{{math.Inf(1), 0}}},
		{"-Inf", [][]float64{{0, 0}, {0, math.Inf(-1)}}},
		{"ragged", [][]float64{{0, 0}, {1, 1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cluster(tt.data, DefaultConfig())
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = FitStream(tt.data, DefaultConfig())
			assert.ErrorIs(t, err, ErrInvalidInput)

			mb, err := NewMiniBatch(DefaultConfig())
			require.NoError(t, err)
			_, err = mb.PartialFit(tt.data)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, mb.State())
			assert.Zero(t, mb.Batches())
		})
	}
}

func TestEdgeCase_DimensionMismatchDetails(t *testing.T) {
	_, err := Cluster([][]float64{{0, 0}, {1, 1}, {2, 2, 2}}, DefaultConfig())
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Index)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
	assert.Contains(t, dm.Error(), "point 2")
}

func TestEdgeCase_LargeCoordinates(t *testing.T) {
	data := [][]float64{{1e150, 0}, {1e150, 1}, {-1e150, 0}}
	cfg := DefaultConfig()
	cfg.Delta = 10

	result, err := Cluster(data, cfg)
	require.NoError(t, err)
	assert.Len(t, result.Centers, 2)
	assert.False(t, math.IsNaN(result.Objective))
}
