package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
 <body>
  <div class='ocr_page' id='page_1' title='image "unknown"; bbox 0 0 640 480; ppageno 0'>
   <div class='ocr_carea' id='block_1_1' title="bbox 36 92 580 160">
    <p class='ocr_par' id='par_1_1' lang='eng' title="bbox 36 92 580 160">
     <span class='ocr_line' id='line_1_1' title="bbox 36 92 580 122; baseline 0 -7; x_size 30">
      <span class='ocrx_word' id='word_1_1' title='bbox 36 92 60 116; x_wconf 90'><span class='ocrx_cinfo' title='x_bboxes 36 92 48 116; x_conf 91.5'>H</span><span class='ocrx_cinfo' title='x_bboxes 48 92 60 116; x_conf 88.5'>i</span></span>
      <span class='ocrx_word' id='word_1_2' lang='deu' title='bbox 70 92 120 116; x_wconf 70'><strong>Welt</strong></span>
     </span>
     <span class='ocr_header' id='line_1_2' title="bbox 36 130 200 160">
      <span class='ocrx_word' id='word_1_3' title='bbox 36 130 200 160; x_wconf 50'>again</span>
     </span>
    </p>
   </div>
   <div class='ocr_carea' id='block_1_2' title="bbox 10 300 100 320">
    <p class='ocr_par' id='par_1_2' lang='fra' title="bbox 10 300 100 320">
     <span class='ocr_line' id='line_1_3' title="bbox 10 300 100 320">
      <span class='ocrx_word' id='word_1_4' title='bbox 10 300 100 320; x_wconf 40'>bonjour</span>
      <span class='ocrx_word' id='word_1_5' title='bbox 10 300 100 320; x_wconf 0'> </span>
     </span>
    </p>
   </div>
   <div class='ocr_carea' id='block_1_3' title="bbox 0 0 1 1"></div>
  </div>
 </body>
</html>`

func TestParseHOCR(t *testing.T) {
	page, err := ParseHOCR(strings.NewReader(sampleHOCR))
	require.NoError(t, err)

	require.Len(t, page.Blocks, 2, "empty blocks are dropped")
	assert.Equal(t, "Hi Welt\nagain\n\nbonjour", page.Text)
	assert.InDelta(t, (90.0+70+50+40)/4, page.Confidence, 1e-9)

	first := page.Blocks[0]
	assert.Equal(t, BBox{X0: 36, Y0: 92, X1: 580, Y1: 160}, first.BBox)
	require.Len(t, first.Paragraphs, 1)
	par := first.Paragraphs[0]
	assert.Equal(t, "eng", par.Language)
	require.Len(t, par.Lines, 2, "ocr_header counts as a line")
	assert.InDelta(t, 80.0, par.Lines[0].Confidence, 1e-9)
	assert.InDelta(t, 70.0, par.Confidence, 1e-9)

	words := par.Lines[0].Words
	require.Len(t, words, 2)
	assert.Equal(t, "Hi", words[0].Text)
	assert.Equal(t, "eng", words[0].Language)
	assert.Equal(t, "Welt", words[1].Text)
	assert.Equal(t, "deu", words[1].Language)
	assert.Empty(t, words[1].Symbols)

	require.Len(t, words[0].Symbols, 2)
	assert.Equal(t, Symbol{Text: "H", Confidence: 91.5, BBox: BBox{X0: 36, Y0: 92, X1: 48, Y1: 116}}, words[0].Symbols[0])
	assert.Equal(t, "i", words[0].Symbols[1].Text)

	second := page.Blocks[1]
	require.Len(t, second.Paragraphs[0].Lines[0].Words, 1, "blank words are dropped")
	assert.Equal(t, "fra", second.Paragraphs[0].Lines[0].Words[0].Language)
}

func TestParseHOCREmpty(t *testing.T) {
	page, err := ParseHOCR(strings.NewReader(`<html><body><div class='ocr_page'></div></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, page.Blocks)
	assert.Equal(t, "", page.Text)
	assert.Zero(t, page.Confidence)
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  title
	}{
		{"bbox and wconf", "bbox 1 2 3 4; x_wconf 93", title{bbox: BBox{1, 2, 3, 4}, wconf: 93}},
		{"char info", "x_bboxes 5 6 7 8; x_conf 12.5", title{bboxes: BBox{5, 6, 7, 8}, conf: 12.5}},
		{"short bbox", "bbox 1 2 3", title{}},
		{"garbage", "bbox a b c d; x_wconf z", title{}},
		{"empty", "", title{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := html.Parse(strings.NewReader(`<span class="x" title="` + tt.title + `">x</span>`))
			require.NoError(t, err)

			nodes := findAll(doc, func(n *html.Node) bool { return hasClass(n, "x") })
			require.Len(t, nodes, 1)
			assert.Equal(t, tt.want, parseTitle(nodes[0]))
		})
	}
}
