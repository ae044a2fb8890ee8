package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tessnode/internal/engine"
	"github.com/MeKo-Tech/tessnode/internal/engine/enginetest"
	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/metrics"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/recognizer"
	"github.com/MeKo-Tech/tessnode/internal/testutil"
	"github.com/MeKo-Tech/tessnode/internal/utils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngItem(t *testing.T) items.Item {
	t.Helper()
	return items.Item{
		JSON: map[string]any{"id": "png"},
		Binary: map[string]items.Binary{
			"data": {Data: testutil.PNGBytes(t, testutil.CreateTestImage(20, 10, color.White)), MimeType: "image/png", FileName: "scan.png"},
		},
	}
}

func pdfItem(widths ...int) items.Item {
	return items.Item{
		JSON: map[string]any{"id": "pdf"},
		Binary: map[string]items.Binary{
			"data": {Data: testutil.ImagePagesPDF(widths...), MimeType: "application/pdf", FileName: "doc.pdf"},
		},
	}
}

func build(t *testing.T, fake *enginetest.Engine, mutate func(*Options)) *Pipeline {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := NewBuilder().WithOptions(opts).WithEngine(fake.Factory()).WithLogger(quietLogger()).Build()
	require.NoError(t, err)
	return p
}

func TestExecutePNGTextMode(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("hello world", 91))
	p := build(t, fake, nil)

	out, err := p.Execute(context.Background(), []items.Item{pngItem(t)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, items.PairedItem{Item: 0}, out[0].PairedItem)
	assert.Equal(t, map[string]any{"text": "hello world", "confidence": 91.0}, out[0].JSON)
	require.Contains(t, out[0].Binary, "data", "original attachments are kept")
	require.Contains(t, out[0].Binary, items.OCRField)
	assert.Equal(t, "scan.png", out[0].Binary[items.OCRField].FileName)
	assert.Equal(t, "image/png", out[0].Binary[items.OCRField].MimeType)
	assert.Nil(t, out[0].Error)
}

func TestExecutePDFWordsMode(t *testing.T) {
	fake := enginetest.New(enginetest.BuildPage(1, 1, 1, 2, 1))
	p := build(t, fake, func(o *Options) { o.Recognition.Granularity = recognizer.GranularityWords })

	out, err := p.Execute(context.Background(), []items.Item{pdfItem(8, 12)})
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i, o := range out {
		assert.Equal(t, 0, o.PairedItem.Item)
		blocks, ok := o.JSON["blocks"].([]recognizer.Entry)
		require.True(t, ok, "output %d has a blocks array", i)
		assert.Len(t, blocks, 2)
		assert.Equal(t, "image/png", o.Binary[items.OCRField].MimeType)
	}
	assert.Equal(t, "doc.pdf#obj3", out[0].Binary[items.OCRField].FileName)
	assert.Equal(t, "doc.pdf#obj6", out[1].Binary[items.OCRField].FileName)
}

func TestExecuteTimeout(t *testing.T) {
	tests := []struct {
		name           string
		continueOnFail bool
	}{
		{"continue on fail", true},
		{"stop on fail", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := enginetest.NewSlow(enginetest.TextPage("late", 99), time.Minute)
			p := build(t, fake, func(o *Options) {
				o.Recognition.Timeout = time.Millisecond
				o.ContinueOnFail = tt.continueOnFail
			})

			out, err := p.Execute(context.Background(), []items.Item{pngItem(t)})
			assert.Equal(t, 1, fake.Terminations())

			if !tt.continueOnFail {
				var itemErr *ItemError
				require.ErrorAs(t, err, &itemErr)
				assert.Equal(t, 0, itemErr.Index)
				assert.ErrorIs(t, err, nodeerr.ErrTimeout)
				assert.Nil(t, out)
				return
			}

			require.NoError(t, err)
			require.Len(t, out, 2, "timeout output followed by the error marker")
			assert.Equal(t, map[string]any{"timeout": true}, out[0].JSON)
			assert.Contains(t, out[0].Binary, items.OCRField)
			assert.Equal(t, map[string]any{"id": "png"}, out[1].JSON)
			assert.Equal(t, "TIMEOUT", out[1].Error["code"])
			assert.Equal(t, 0, out[1].Error["itemIndex"])
			assert.Equal(t, 0, out[1].PairedItem.Item)
		})
	}
}

func TestExecuteDropsLowConfidenceText(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("blurry", 40))
	p := build(t, fake, func(o *Options) { o.Recognition.MinConfidence = 50 })

	out, err := p.Execute(context.Background(), []items.Item{pngItem(t)})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecuteContinueOnFailKeepsOriginalItem(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("ok", 90))
	p := build(t, fake, func(o *Options) { o.ContinueOnFail = true })

	bad := items.Item{
		JSON:   map[string]any{"row": 2},
		Binary: map[string]items.Binary{"data": {Data: []byte("a,b"), MimeType: "text/csv", FileName: "x.csv"}},
	}
	out, err := p.Execute(context.Background(), []items.Item{pngItem(t), bad, pngItem(t)})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, 0, out[0].PairedItem.Item)
	assert.Equal(t, 1, out[1].PairedItem.Item)
	assert.Equal(t, 2, out[2].PairedItem.Item)

	errOut := out[1]
	assert.Equal(t, map[string]any{"row": 2}, errOut.JSON)
	assert.Equal(t, bad.Binary, errOut.Binary)
	assert.Equal(t, "UNSUPPORTED_INPUT_TYPE", errOut.Error["code"])
	assert.Equal(t, map[string]any{"field": "data", "mimeType": "text/csv"}, errOut.Error["details"])
}

func TestExecuteStopOnFail(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("ok", 90))
	p := build(t, fake, nil)

	missing := items.Item{JSON: map[string]any{}}
	out, err := p.Execute(context.Background(), []items.Item{pngItem(t), missing, pngItem(t)})
	assert.Nil(t, out)

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 1, itemErr.Index)
	assert.ErrorIs(t, err, nodeerr.ErrMissingBinary)
	assert.Equal(t, 1, fake.Calls(), "the third item is never processed")
}

func TestProcessItemKeepsDiscoveryOrder(t *testing.T) {
	fake := enginetest.New(nil)
	fake.Respond = func(img []byte, _ engine.RecognizeOptions) (*engine.Page, error) {
		meta, err := utils.DecodeConfig(img)
		if err != nil {
			return nil, err
		}
		// Wider images finish first.
		time.Sleep(time.Duration(40-meta.Width) * time.Millisecond)
		return enginetest.TextPage(fmt.Sprintf("w=%d", meta.Width), 90), nil
	}
	p := build(t, fake, nil)

	out, err := p.Execute(context.Background(), []items.Item{pdfItem(5, 15, 25, 35)})
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i, want := range []string{"w=5", "w=15", "w=25", "w=35"} {
		assert.Equal(t, want, out[i].JSON["text"])
	}
}

func TestProcessItemEngineErrorKeepsSiblings(t *testing.T) {
	fake := enginetest.New(nil)
	boom := errors.New("engine crashed")
	fake.Respond = func(img []byte, _ engine.RecognizeOptions) (*engine.Page, error) {
		meta, err := utils.DecodeConfig(img)
		if err != nil {
			return nil, err
		}
		if meta.Width == 6 {
			return nil, boom
		}
		return enginetest.TextPage("fine", 90), nil
	}
	p := build(t, fake, func(o *Options) { o.ContinueOnFail = true })

	out, err := p.Execute(context.Background(), []items.Item{pdfItem(4, 6, 8)})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "fine", out[0].JSON["text"])
	assert.Equal(t, "fine", out[1].JSON["text"])
	assert.Equal(t, "RECOGNITION_FAILED", out[2].Error["code"])
}

func TestKeepBinaryDisabled(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("x", 90))
	p := build(t, fake, func(o *Options) { o.KeepBinary = false })

	out, err := p.Execute(context.Background(), []items.Item{pngItem(t)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotContains(t, out[0].Binary, items.OCRField)
	assert.Contains(t, out[0].Binary, "data")
}

func TestExecuteConfiguresEngineOnce(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("x", 90))
	p := build(t, fake, func(o *Options) {
		o.Language = "deu"
		o.Parameters = engine.Parameters{engine.ParamPageSegMode: "7", engine.ParamCharWhitelist: "0123456789"}
	})

	_, err := p.Execute(context.Background(), []items.Item{pngItem(t), pngItem(t), pdfItem(3, 4)})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Created())
	assert.Equal(t, "deu", fake.Language())
	assert.Equal(t, []engine.Parameters{{engine.ParamPageSegMode: "7", engine.ParamCharWhitelist: "0123456789"}}, fake.Parameters())
	assert.Equal(t, 1, fake.Terminations(), "the worker is released when the invocation ends")
}

func TestExecuteEngineUnavailable(t *testing.T) {
	fake := enginetest.New(nil)
	fake.FailCreate(engine.ErrNoEngine)
	p := build(t, fake, nil)

	_, err := p.Execute(context.Background(), []items.Item{pngItem(t)})
	assert.ErrorIs(t, err, engine.ErrNoEngine)
}

func TestExecuteCancelled(t *testing.T) {
	fake := enginetest.NewSlow(enginetest.TextPage("x", 90), time.Minute)
	p := build(t, fake, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Execute(ctx, []items.Item{pngItem(t)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var itemErr *ItemError
	assert.False(t, errors.As(err, &itemErr), "cancellation is not an item failure")
}

func TestExecuteMetricsAndProgress(t *testing.T) {
	fake := enginetest.New(enginetest.TextPage("x", 90))
	m := metrics.New()
	progress := &recordingProgress{}
	opts := DefaultOptions()
	opts.ContinueOnFail = true
	p, err := NewBuilder().WithOptions(opts).WithEngine(fake.Factory()).WithLogger(quietLogger()).
		WithMetrics(m).WithProgress(progress).Build()
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), []items.Item{pngItem(t), {JSON: map[string]any{}}})
	require.NoError(t, err)

	assert.Equal(t, 2, progress.total)
	assert.Equal(t, []int{1, 2}, progress.done)
	assert.Equal(t, []int{1}, progress.errors)
	assert.Equal(t, 2, progress.summary.Items)
	assert.Equal(t, 2, progress.summary.Outputs)
	assert.Equal(t, 1, progress.summary.Failed)
	assert.NotEmpty(t, progress.summary.ExecutionID)
}

type recordingProgress struct {
	total   int
	done    []int
	errors  []int
	summary Summary
}

func (r *recordingProgress) OnStart(total int) { r.total = total }
func (r *recordingProgress) OnProgress(done, _ int) { r.done = append(r.done, done) }
func (r *recordingProgress) OnError(index int, _ error) { r.errors = append(r.errors, index) }
func (r *recordingProgress) OnComplete(summary Summary) { r.summary = summary }
