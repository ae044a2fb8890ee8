package source

import (
	"context"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/nodeerr"
	"github.com/MeKo-Tech/tessnode/internal/pdf"
	"github.com/MeKo-Tech/tessnode/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newResolver(list []items.Item, percent int) *Resolver {
	extractor := pdf.NewExtractor(pdf.Options{}, quietLogger())
	return NewResolver(items.NewMemoryStore(list), extractor, percent, quietLogger())
}

func itemWith(data []byte, mime, name string) items.Item {
	return items.Item{
		JSON:   map[string]any{},
		Binary: map[string]items.Binary{"data": {Data: data, MimeType: mime, FileName: name}},
	}
}

func TestResolveImagePassthrough(t *testing.T) {
	png := testutil.PNGBytes(t, testutil.CreateGradientImage(30, 20))
	r := newResolver([]items.Item{itemWith(png, "image/png", "scan.png")}, 100)

	images, err := r.Resolve(context.Background(), 0, "data")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, png, images[0].Data)
	assert.Equal(t, "image/png", images[0].MimeType)
	assert.Equal(t, "scan.png", images[0].Name)
	assert.Equal(t, KindImage, images[0].Kind)
}

func TestResolveImageResize(t *testing.T) {
	png := testutil.PNGBytes(t, testutil.CreateGradientImage(40, 20))
	r := newResolver([]items.Item{itemWith(png, "image/png", "scan.png")}, 50)

	images, err := r.Resolve(context.Background(), 0, "data")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "image/jpeg", images[0].MimeType)

	img := testutil.DecodeBytes(t, images[0].Data)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestResolvePDF(t *testing.T) {
	b := testutil.NewPDFBuilder()
	for i := 0; i < 2; i++ {
		img := b.AddImage(testutil.ImageObject{
			Width: 2, Height: 2, BitsPerComponent: 8, ColorSpace: "/DeviceGray",
			Filter: "FlateDecode", Data: testutil.Deflate([]byte{0, 50, 100, 150}),
		})
		b.AddImagePage(img)
	}
	r := newResolver([]items.Item{itemWith(b.Bytes(), "application/pdf", "doc.pdf")}, 50)

	images, err := r.Resolve(context.Background(), 0, "data")
	require.NoError(t, err)
	require.Len(t, images, 2)
	for _, img := range images {
		assert.Equal(t, KindPDF, img.Kind)
		assert.Equal(t, "image/png", img.MimeType, "resize does not apply to PDF images")
		assert.Contains(t, img.Name, "doc.pdf#obj")
	}
}

func TestResolveUnsupportedType(t *testing.T) {
	r := newResolver([]items.Item{itemWith([]byte("a,b"), "text/csv", "x.csv")}, 100)

	_, err := r.Resolve(context.Background(), 0, "data")
	require.ErrorIs(t, err, nodeerr.ErrUnsupportedInputType)
	var nerr *nodeerr.Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "data", nerr.Details["field"])
	assert.Equal(t, "text/csv", nerr.Details["mimeType"])
}

func TestResolveMissingField(t *testing.T) {
	r := newResolver([]items.Item{{JSON: map[string]any{}}}, 100)

	_, err := r.Resolve(context.Background(), 0, "data")
	assert.ErrorIs(t, err, nodeerr.ErrMissingBinary)
}

func TestResolveResizeUndecodable(t *testing.T) {
	r := newResolver([]items.Item{itemWith([]byte("garbage"), "image/png", "bad.png")}, 50)

	_, err := r.Resolve(context.Background(), 0, "data")
	assert.Error(t, err)
}

func TestResolveSupportedFormats(t *testing.T) {
	src := testutil.CreateTestImage(13, 7, color.Gray{Y: 90})
	formats := map[string]imaging.Format{
		"image/png":  imaging.PNG,
		"image/jpeg": imaging.JPEG,
		"image/gif":  imaging.GIF,
		"image/bmp":  imaging.BMP,
		"image/tiff": imaging.TIFF,
	}
	for mime, format := range formats {
		t.Run(mime, func(t *testing.T) {
			data := testutil.EncodeImage(t, src, format)
			r := newResolver([]items.Item{itemWith(data, mime, "img")}, 100)

			images, err := r.Resolve(context.Background(), 0, "data")
			require.NoError(t, err)
			require.Len(t, images, 1)
			img := testutil.DecodeBytes(t, images[0].Data)
			assert.Equal(t, 13, img.Bounds().Dx())
			assert.Equal(t, 7, img.Bounds().Dy())
		})
	}
}
