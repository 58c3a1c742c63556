package synth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canhld94/HeteroServing/internal/engine/synth"
)

func TestDetectionTensorIsDeterministic(t *testing.T) {
	a := synth.DetectionTensor([]byte("image"), []byte("graph"), 8, 20)
	b := synth.DetectionTensor([]byte("image"), []byte("graph"), 8, 20)
	assert.Equal(t, a, b)
}

func TestDetectionTensorVariesWithGraphSalt(t *testing.T) {
	a := synth.DetectionTensor([]byte("image"), []byte("graph-a"), 8, 20)
	b := synth.DetectionTensor([]byte("image"), []byte("graph-b"), 8, 20)
	assert.NotEqual(t, a, b)
}

func TestDetectionTensorLayout(t *testing.T) {
	const n = 5
	const maxLabelID = 3
	raw := synth.DetectionTensor([]byte("image"), nil, n, maxLabelID)
	require.Len(t, raw, (n+1)*7)

	for i := 0; i < n*7; i += 7 {
		assert.Equal(t, float32(0), raw[i]) // image_id
		labelID := int(raw[i+1])
		assert.GreaterOrEqual(t, labelID, 1)
		assert.LessOrEqual(t, labelID, maxLabelID)
		assert.LessOrEqual(t, raw[i+3], raw[i+5]) // xmin <= xmax
		assert.LessOrEqual(t, raw[i+4], raw[i+6]) // ymin <= ymax
	}
	// sentinel row
	assert.Less(t, raw[n*7], float32(0))
}

func TestGridTensorIsDeterministicPerSide(t *testing.T) {
	a := synth.GridTensor([]byte("image"), []byte("graph"), 13, 3, 4, 80)
	b := synth.GridTensor([]byte("image"), []byte("graph"), 13, 3, 4, 80)
	assert.Equal(t, a, b)

	c := synth.GridTensor([]byte("image"), []byte("graph"), 26, 3, 4, 80)
	assert.Len(t, c, 3*26*26*(4+1+80))
	assert.NotEqual(t, len(a), len(c))
}
