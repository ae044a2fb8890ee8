package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ImageProcessed("pdf", "ok")
	m.ImageProcessed("pdf", "ok")
	m.ImageProcessed("image", "timeout")
	m.ImageSkipped("UNSUPPORTED_IMAGE_ENCODING")
	m.EngineCreated()
	m.EngineTerminated()
	m.ItemProcessed("failed")
	m.ObserveRecognition("ocr", 120*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.imagesTotal.WithLabelValues("pdf", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.imagesTotal.WithLabelValues("image", "timeout")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.skippedImages.WithLabelValues("UNSUPPORTED_IMAGE_ENCODING")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.engineTerminations), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.engineCreations), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.itemsTotal.WithLabelValues("failed")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.recognitionDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ImageProcessed("image", "ok")
		m.ImageSkipped("x")
		m.ObserveRecognition("boxes", time.Second)
		m.EngineTerminated()
		m.EngineCreated()
		m.ItemProcessed("ok")
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.EngineTerminated()

	path := filepath.Join(t.TempDir(), "tessnode.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tessnode_engine_terminations_total 1")
}
