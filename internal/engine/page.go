package engine

// BBox is a box in image pixels; (X0,Y0) is the top-left corner and
// (X1,Y1) the bottom-right one.
type BBox struct {
	X0 int `json:"x0" yaml:"x0"`
	Y0 int `json:"y0" yaml:"y0"`
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
}

// Offset moves the box by dx, dy.
func (b BBox) Offset(dx, dy int) BBox {
	return BBox{X0: b.X0 + dx, Y0: b.Y0 + dy, X1: b.X1 + dx, Y1: b.Y1 + dy}
}

// Symbol is a single recognized character.
type Symbol struct {
	Text       string
	Confidence float64
	BBox       BBox
}

// Word is a run of symbols; Language is the engine language it was read in.
type Word struct {
	Text       string
	Confidence float64
	BBox       BBox
	Language   string
	Symbols    []Symbol
}

// Line is one text line of a paragraph.
type Line struct {
	Text       string
	Confidence float64
	BBox       BBox
	Words      []Word
}

// Paragraph groups lines.
type Paragraph struct {
	Text       string
	Confidence float64
	BBox       BBox
	Language   string
	Lines      []Line
}

// Block is a layout region holding paragraphs.
type Block struct {
	Text       string
	Confidence float64
	BBox       BBox
	Paragraphs []Paragraph
}

// Page is the result of one recognition. Confidence is on a 0-100 scale.
// Blocks is only set for OutputBlocks.
type Page struct {
	Text       string
	Confidence float64
	Blocks     []Block
}

// Offset moves every box of the page by dx, dy, in place.
func (p *Page) Offset(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	for bi := range p.Blocks {
		b := &p.Blocks[bi]
		b.BBox = b.BBox.Offset(dx, dy)
		for pi := range b.Paragraphs {
			par := &b.Paragraphs[pi]
			par.BBox = par.BBox.Offset(dx, dy)
			for li := range par.Lines {
				line := &par.Lines[li]
				line.BBox = line.BBox.Offset(dx, dy)
				for wi := range line.Words {
					word := &line.Words[wi]
					word.BBox = word.BBox.Offset(dx, dy)
					for si := range word.Symbols {
						word.Symbols[si].BBox = word.Symbols[si].BBox.Offset(dx, dy)
					}
				}
			}
		}
	}
}

// MeanWordConfidence averages the confidence of all words, or returns 0
// when there are none.
func (p *Page) MeanWordConfidence() float64 {
	var sum float64
	var n int
	for _, b := range p.Blocks {
		for _, par := range b.Paragraphs {
			for _, line := range par.Lines {
				for _, w := range line.Words {
					sum += w.Confidence
					n++
				}
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
