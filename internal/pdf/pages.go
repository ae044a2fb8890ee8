package pdf

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxFormDepth bounds recursion into nested Form XObjects.
const maxFormDepth = 8

type page struct {
	number    int
	dict      types.Dict
	resources types.Dict
}

// pages returns the leaves of the page tree in order, each with the
// resources it inherits.
func (w *walker) pages() ([]page, error) {
	if err := w.ctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	out := make([]page, 0, w.ctx.PageCount)
	for nr := 1; nr <= w.ctx.PageCount; nr++ {
		d, _, inherited, err := w.ctx.PageDict(nr, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}
		if d == nil {
			return nil, fmt.Errorf("page %d not found in page tree", nr)
		}
		var res types.Dict
		if inherited != nil {
			res = inherited.Resources
		}
		out = append(out, page{number: nr, dict: d, resources: res})
	}
	return out, nil
}

// pageContent concatenates the decoded content streams of a page.
func (w *walker) pageContent(d types.Dict) ([]byte, error) {
	var parts []types.Object
	switch c := w.deref(d["Contents"]).(type) {
	case nil:
		return nil, nil
	case types.Array:
		parts = c
	default:
		parts = []types.Object{d["Contents"]}
	}

	var content []byte
	for _, p := range parts {
		data, err := w.decoded(p)
		if err != nil {
			return nil, err
		}
		content = append(content, data...)
		content = append(content, '\n')
	}
	return content, nil
}

// byPages follows every Do operator of the selected pages, descending into
// Form XObjects. Each image object is reported once, on the first page that
// paints it; soft masks are excluded.
func (w *walker) byPages(ctx context.Context, selected map[int]bool) ([]SourceObject, error) {
	pages, err := w.pages()
	if err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var refs []objectRef
	var onPage []int
	masks := map[int]bool{}

	var paint func(content []byte, res types.Dict, pageNr, depth int, forms map[int]bool)
	paint = func(content []byte, res types.Dict, pageNr, depth int, forms map[int]bool) {
		xobjects := w.dict(res["XObject"])
		for _, name := range paintedXObjects(content) {
			entry, ok := xobjects[name]
			if !ok {
				w.logger.Warn("Unresolved XObject", "document", w.name, "page", pageNr, "name", name)
				continue
			}
			ref := indirectRef(entry)
			if ref == nil {
				continue
			}
			n := ref.ObjectNumber.Value()
			sd, err := w.stream(*ref)
			if err != nil {
				w.logger.Warn("Cannot read XObject", "document", w.name, "page", pageNr, "name", name, "error", err)
				continue
			}
			switch nameOf(sd.Dict["Subtype"]) {
			case "Image":
				if m := indirectRef(sd.Dict["SMask"]); m != nil {
					masks[m.ObjectNumber.Value()] = true
				}
				if seen[n] {
					continue
				}
				seen[n] = true
				refs = append(refs, objectRef{number: n, generation: ref.GenerationNumber.Value()})
				onPage = append(onPage, pageNr)
			case "Form":
				if depth >= maxFormDepth || forms[n] {
					continue
				}
				formContent, err := w.decoded(*ref)
				if err != nil {
					w.logger.Warn("Cannot decode form", "document", w.name, "page", pageNr, "name", name, "error", err)
					continue
				}
				formRes := res
				if r := w.dict(sd.Dict["Resources"]); r != nil {
					formRes = r
				}
				forms[n] = true
				paint(formContent, formRes, pageNr, depth+1, forms)
				delete(forms, n)
			}
		}
	}

	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if selected != nil && !selected[p.number] {
			continue
		}
		content, err := w.pageContent(p.dict)
		if err != nil {
			w.logger.Warn("Cannot decode page content", "document", w.name, "page", p.number, "error", err)
			continue
		}
		paint(content, p.resources, p.number, 0, map[int]bool{})
	}

	out := make([]SourceObject, 0, len(refs))
	for i, r := range refs {
		if masks[r.number] {
			continue
		}
		obj, err := w.sourceObject(r, 0, fmt.Sprintf("%s#p%d-obj%d", w.name, onPage[i], r.number))
		if err != nil {
			w.logger.Warn("Skipping PDF image", "document", w.name, "object", r.number, "error", err)
			continue
		}
		obj.Page = onPage[i]
		out = append(out, obj)
	}
	return out, nil
}
