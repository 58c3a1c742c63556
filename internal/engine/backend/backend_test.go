package backend_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/engine/backend"
	"github.com/canhld94/HeteroServing/internal/engine/rcnn"
	"github.com/canhld94/HeteroServing/internal/engine/ssd"
	"github.com/canhld94/HeteroServing/internal/engine/yolo"
)

const ssdGraph = `{
	"inputs":  [{"name": "data", "shape": [1, 3, 300, 300]}],
	"outputs": [{"name": "detection_out", "shape": [1, 1, 200, 7]}]
}`

const rcnnGraph = `{
	"inputs": [
		{"name": "data", "shape": [1, 3, 600, 600]},
		{"name": "im_info", "shape": [1, 2]}
	],
	"outputs": [{"name": "detection_out", "shape": [1, 1, 300, 7]}]
}`

const yoloGraph = `{
	"inputs": [{"name": "data", "shape": [1, 3, 416, 416]}],
	"outputs": [
		{"name": "conv13", "shape": [1, 255, 13, 13], "layer_type": "RegionYolo"},
		{"name": "conv26", "shape": [1, 255, 26, 26], "layer_type": "RegionYolo"},
		{"name": "conv52", "shape": [1, 255, 52, 52], "layer_type": "RegionYolo"}
	]
}`

func writeFixtures(t *testing.T, graphJSON string) (graphPath, labelPath string) {
	t.Helper()
	dir := t.TempDir()
	graphPath = filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(graphPath, []byte(graphJSON), 0o644))
	labelPath = filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelPath, []byte("background\nperson\ncar\ndog\ncat\n"), 0o644))
	return graphPath, labelPath
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCPUEngineSSDIsDeterministicAndThresholded(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, ssdGraph)
	e, err := backend.NewCPU(engine.ModelSSD, graphPath, labelPath)
	require.NoError(t, err)
	assert.Equal(t, engine.DeviceCPU, e.Device())
	assert.Len(t, e.Labels(), 5)

	img := testPNG(t, 64, 48)
	first, err := e.RunDetection(context.Background(), img)
	require.NoError(t, err)
	second, err := e.RunDetection(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, b := range first {
		assert.GreaterOrEqual(t, b.Score, float64(ssd.ScoreThreshold))
		assert.NotEqual(t, "unknown", b.Label)
	}
}

func TestGPUEngineMatchesCPUForSameGraph(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, ssdGraph)
	cpu, err := backend.NewCPU(engine.ModelSSD, graphPath, labelPath)
	require.NoError(t, err)
	gpu, err := backend.NewGPU(engine.ModelSSD, graphPath, labelPath)
	require.NoError(t, err)

	img := testPNG(t, 32, 32)
	fromCPU, err := cpu.RunDetection(context.Background(), img)
	require.NoError(t, err)
	fromGPU, err := gpu.RunDetection(context.Background(), img)
	require.NoError(t, err)
	// The devices differ only in how bytes reach the (simulated) device;
	// the parsed result is identical.
	assert.Equal(t, fromCPU, fromGPU)
}

func TestRCNNEngineAppliesItsThreshold(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, rcnnGraph)
	e, err := backend.NewCPU(engine.ModelRCNN, graphPath, labelPath)
	require.NoError(t, err)

	pred, err := e.RunDetection(context.Background(), testPNG(t, 40, 40))
	require.NoError(t, err)
	for _, b := range pred {
		assert.GreaterOrEqual(t, b.Score, rcnn.ScoreThreshold)
	}
}

func TestYOLOEngineSuppressesOverlaps(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, yoloGraph)
	e, err := backend.NewCPU(engine.ModelYOLOv3, graphPath, labelPath)
	require.NoError(t, err)

	pred, err := e.RunDetection(context.Background(), testPNG(t, 100, 80))
	require.NoError(t, err)
	for i := range pred {
		assert.GreaterOrEqual(t, pred[i].Score, yolo.ScoreThreshold)
		for j := i + 1; j < len(pred); j++ {
			a := yolo.Box{Xmin: pred[i].Xmin, Ymin: pred[i].Ymin, Xmax: pred[i].Xmax, Ymax: pred[i].Ymax}
			b := yolo.Box{Xmin: pred[j].Xmin, Ymin: pred[j].Ymin, Xmax: pred[j].Xmax, Ymax: pred[j].Ymax}
			assert.Less(t, yolo.IoU(a, b), yolo.NMSIoUThreshold)
		}
	}
}

func TestFPGAEngineSetsBitstreamEnv(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, ssdGraph)
	t.Setenv(backend.BitstreamEnv, "")

	_, err := backend.NewFPGA(engine.ModelSSD, graphPath, labelPath, "/opt/bitstreams/ssd.aocx")
	require.NoError(t, err)
	assert.Equal(t, "/opt/bitstreams/ssd.aocx", os.Getenv(backend.BitstreamEnv))
}

func TestUnreadableImageIsDecodeError(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, ssdGraph)
	e, err := backend.NewCPU(engine.ModelSSD, graphPath, labelPath)
	require.NoError(t, err)

	_, err = e.RunDetection(context.Background(), []byte("definitely not an image"))
	var de *apperr.DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestConstructionRejectsMismatchedGraph(t *testing.T) {
	tests := []struct {
		name  string
		kind  engine.ModelKind
		graph string
	}{
		{"ssd graph for rcnn wants two inputs", engine.ModelRCNN, ssdGraph},
		{"rcnn graph for ssd wants one input", engine.ModelSSD, rcnnGraph},
		{"detection graph for yolo wants RegionYolo outputs", engine.ModelYOLOv3, ssdGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graphPath, labelPath := writeFixtures(t, tt.graph)
			_, err := backend.NewCPU(tt.kind, graphPath, labelPath)
			var ce *apperr.ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestUnknownModelKindIsNotImplemented(t *testing.T) {
	graphPath, labelPath := writeFixtures(t, ssdGraph)
	_, err := backend.NewCPU(engine.ModelKind("resnet"), graphPath, labelPath)
	var nie *apperr.NotImplementedError
	assert.ErrorAs(t, err, &nie)
}
