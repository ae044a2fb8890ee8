package recognizer

import "github.com/MeKo-Tech/tessnode/internal/engine"

// Levels holds every level of a page tree as flat lists in document order.
type Levels struct {
	Paragraphs []Entry
	Lines      []Entry
	Words      []Entry
	Symbols    []Entry
}

// Flatten builds Levels from page without touching it. Paragraphs and
// words carry their language; lines and symbols have none.
func Flatten(page *engine.Page) Levels {
	var lv Levels
	if page == nil {
		return lv
	}
	for _, b := range page.Blocks {
		for _, p := range b.Paragraphs {
			lv.Paragraphs = append(lv.Paragraphs, newEntry(p.Text, p.Confidence, p.BBox, p.Language))
			for _, l := range p.Lines {
				lv.Lines = append(lv.Lines, newEntry(l.Text, l.Confidence, l.BBox, ""))
				for _, w := range l.Words {
					lv.Words = append(lv.Words, newEntry(w.Text, w.Confidence, w.BBox, w.Language))
					for _, s := range w.Symbols {
						lv.Symbols = append(lv.Symbols, newEntry(s.Text, s.Confidence, s.BBox, ""))
					}
				}
			}
		}
	}
	return lv
}

func newEntry(text string, confidence float64, bbox engine.BBox, language string) Entry {
	return Entry{Text: CleanText(text), Confidence: confidence, BBox: bbox, Language: language}
}

// Select returns the list for g; text granularity has none.
func (lv Levels) Select(g Granularity) []Entry {
	switch g {
	case GranularityParagraphs:
		return lv.Paragraphs
	case GranularityLines:
		return lv.Lines
	case GranularityWords:
		return lv.Words
	case GranularitySymbols:
		return lv.Symbols
	default:
		return nil
	}
}
