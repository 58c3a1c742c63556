package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripsEncodedImage(t *testing.T) {
	want := &EncodedImage{Data: []byte{1, 2, 3}, Size: 3}
	data, err := Codec.Marshal(want)
	require.NoError(t, err)

	got := new(EncodedImage)
	require.NoError(t, Codec.Unmarshal(data, got))
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, want.Size, got.Size)
}

func TestZeroBoxIsOmittedFromTheWire(t *testing.T) {
	out := &DetectionOutput{Bboxes: []BBox{{LabelID: 1, Label: "cat", Prob: 0.9}}}
	data, err := Codec.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"box"`)

	withBox := &DetectionOutput{Bboxes: []BBox{{LabelID: 1, Label: "cat", Prob: 0.9, Box: &Rect{Xmax: 10, Ymax: 10}}}}
	data, err = Codec.Marshal(withBox)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"box"`)
}

func TestCodecName(t *testing.T) {
	assert.Equal(t, "json", Codec.Name())
}
