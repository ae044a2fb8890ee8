package engine

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// hOCR class names emitted by Tesseract.
const (
	classBlock  = "ocr_carea"
	classPar    = "ocr_par"
	classWord   = "ocrx_word"
	classSymbol = "ocrx_cinfo"
)

var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// ParseHOCR builds a Page from Tesseract hOCR output. Symbols are only
// present when the engine ran with hocr_char_boxes=1. Confidences of
// lines, paragraphs and blocks are the mean of their words.
func ParseHOCR(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse hOCR: %w", err)
	}

	page := &Page{}
	blockTexts := make([]string, 0)
	for _, bn := range findAll(doc, func(n *html.Node) bool { return hasClass(n, classBlock) }) {
		block := parseBlock(bn)
		if len(block.Paragraphs) == 0 {
			continue
		}
		page.Blocks = append(page.Blocks, block)
		blockTexts = append(blockTexts, block.Text)
	}
	page.Text = strings.Join(blockTexts, "\n\n")
	page.Confidence = page.MeanWordConfidence()
	return page, nil
}

func parseBlock(n *html.Node) Block {
	block := Block{BBox: parseTitle(n).bbox}
	var texts []string
	var c confidence
	for _, pn := range findAll(n, func(n *html.Node) bool { return hasClass(n, classPar) }) {
		par, pc := parseParagraph(pn)
		if len(par.Lines) == 0 {
			continue
		}
		block.Paragraphs = append(block.Paragraphs, par)
		texts = append(texts, par.Text)
		c.merge(pc)
	}
	block.Text = strings.Join(texts, "\n\n")
	block.Confidence = c.mean()
	return block
}

func parseParagraph(n *html.Node) (Paragraph, confidence) {
	par := Paragraph{BBox: parseTitle(n).bbox, Language: attr(n, "lang")}
	var texts []string
	var c confidence
	for _, ln := range findAll(n, isLine) {
		line, lc := parseLine(ln, par.Language)
		if len(line.Words) == 0 {
			continue
		}
		par.Lines = append(par.Lines, line)
		texts = append(texts, line.Text)
		c.merge(lc)
	}
	par.Text = strings.Join(texts, "\n")
	par.Confidence = c.mean()
	return par, c
}

func parseLine(n *html.Node, lang string) (Line, confidence) {
	line := Line{BBox: parseTitle(n).bbox}
	var texts []string
	var c confidence
	for _, wn := range findAll(n, func(n *html.Node) bool { return hasClass(n, classWord) }) {
		word := parseWord(wn, lang)
		if word.Text == "" {
			continue
		}
		line.Words = append(line.Words, word)
		texts = append(texts, word.Text)
		c.add(word.Confidence)
	}
	line.Text = strings.Join(texts, " ")
	line.Confidence = c.mean()
	return line, c
}

func parseWord(n *html.Node, lang string) Word {
	t := parseTitle(n)
	word := Word{BBox: t.bbox, Confidence: t.wconf, Language: lang}
	if l := attr(n, "lang"); l != "" {
		word.Language = l
	}

	symbols := findAll(n, func(n *html.Node) bool { return hasClass(n, classSymbol) })
	if len(symbols) == 0 {
		word.Text = strings.TrimSpace(textContent(n))
		return word
	}
	var sb strings.Builder
	for _, sn := range symbols {
		st := parseTitle(sn)
		text := textContent(sn)
		word.Symbols = append(word.Symbols, Symbol{Text: text, Confidence: st.conf, BBox: st.bboxes})
		sb.WriteString(text)
	}
	word.Text = strings.TrimSpace(sb.String())
	return word
}

type confidence struct {
	sum float64
	n   int
}

func (c *confidence) add(v float64) { c.sum += v; c.n++ }

func (c *confidence) merge(o confidence) { c.sum += o.sum; c.n += o.n }

func (c confidence) mean() float64 {
	if c.n == 0 {
		return 0
	}
	return c.sum / float64(c.n)
}

type title struct {
	bbox   BBox
	bboxes BBox
	wconf  float64
	conf   float64
}

// parseTitle reads the hOCR properties in a title attribute, e.g.
// "bbox 36 92 96 116; x_wconf 93".
func parseTitle(n *html.Node) title {
	var t title
	for _, prop := range strings.Split(attr(n, "title"), ";") {
		fields := strings.Fields(prop)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			t.bbox = parseBox(fields[1:])
		case "x_bboxes":
			t.bboxes = parseBox(fields[1:])
		case "x_wconf":
			t.wconf = parseFloat(fields[1:])
		case "x_conf":
			t.conf = parseFloat(fields[1:])
		}
	}
	return t
}

func parseBox(fields []string) BBox {
	if len(fields) < 4 {
		return BBox{}
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return BBox{}
		}
		v[i] = n
	}
	return BBox{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}
}

func parseFloat(fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return f
}

// findAll returns the outermost descendants of n matching pred, in
// document order. It does not descend into matches.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && pred(c) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func isLine(n *html.Node) bool {
	for _, class := range lineClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
