package enginetest

import (
	"fmt"

	"github.com/MeKo-Tech/tessnode/internal/engine"
)

// TextPage is a page with only text and confidence.
func TextPage(text string, confidence float64) *engine.Page {
	return &engine.Page{Text: text, Confidence: confidence}
}

// BuildPage builds a regular tree of k blocks, each with p paragraphs of l
// lines of w words of s symbols. Texts encode the position, e.g. word
// "b0p1l0w2", and every symbol of word n has confidence n%100.
func BuildPage(k, p, l, w, s int) *engine.Page {
	page := &engine.Page{Confidence: 90}
	word := 0
	for bi := 0; bi < k; bi++ {
		block := engine.Block{Text: fmt.Sprintf("b%d", bi), Confidence: 90, BBox: box(bi)}
		for pi := 0; pi < p; pi++ {
			id := fmt.Sprintf("b%dp%d", bi, pi)
			par := engine.Paragraph{Text: id, Confidence: 90, BBox: box(pi), Language: "eng"}
			for li := 0; li < l; li++ {
				id := fmt.Sprintf("%sl%d", id, li)
				line := engine.Line{Text: id, Confidence: 90, BBox: box(li)}
				for wi := 0; wi < w; wi++ {
					id := fmt.Sprintf("%sw%d", id, wi)
					conf := float64(word % 100)
					wd := engine.Word{Text: id, Confidence: conf, BBox: box(wi), Language: "eng"}
					for si := 0; si < s; si++ {
						wd.Symbols = append(wd.Symbols, engine.Symbol{
							Text:       fmt.Sprintf("%ss%d", id, si),
							Confidence: conf,
							BBox:       box(si),
						})
					}
					line.Words = append(line.Words, wd)
					word++
				}
				par.Lines = append(par.Lines, line)
			}
			block.Paragraphs = append(block.Paragraphs, par)
		}
		page.Blocks = append(page.Blocks, block)
	}
	return page
}

func box(i int) engine.BBox {
	return engine.BBox{X0: i, Y0: i, X1: i + 10, Y1: i + 10}
}

// ClonePage deep-copies page; nil stays nil.
func ClonePage(page *engine.Page) *engine.Page {
	if page == nil {
		return nil
	}
	out := &engine.Page{Text: page.Text, Confidence: page.Confidence}
	for _, b := range page.Blocks {
		nb := b
		nb.Paragraphs = nil
		for _, p := range b.Paragraphs {
			np := p
			np.Lines = nil
			for _, l := range p.Lines {
				nl := l
				nl.Words = nil
				for _, w := range l.Words {
					nw := w
					nw.Symbols = append([]engine.Symbol(nil), w.Symbols...)
					nl.Words = append(nl.Words, nw)
				}
				np.Lines = append(np.Lines, nl)
			}
			nb.Paragraphs = append(nb.Paragraphs, np)
		}
		out.Blocks = append(out.Blocks, nb)
	}
	return out
}
