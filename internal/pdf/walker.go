package pdf

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/tessnode/internal/raster"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxMaskDepth bounds soft mask recursion; a mask of a mask is allowed once.
const maxMaskDepth = 2

type objectRef struct {
	number     int
	generation int
}

// walker resolves objects of one parsed document.
type walker struct {
	ctx    *model.Context
	name   string
	logger *slog.Logger
}

func streamDict(o types.Object) (types.Dict, bool) {
	switch sd := o.(type) {
	case types.StreamDict:
		return sd.Dict, true
	case *types.StreamDict:
		return sd.Dict, sd != nil
	}
	return nil, false
}

func isImage(d types.Dict) bool {
	return nameOf(d["Subtype"]) == "Image"
}

func nameOf(o types.Object) string {
	if n, ok := o.(types.Name); ok {
		return string(n)
	}
	return ""
}

func indirectRef(o types.Object) *types.IndirectRef {
	switch r := o.(type) {
	case types.IndirectRef:
		return &r
	case *types.IndirectRef:
		return r
	}
	return nil
}

func (w *walker) deref(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	v, err := w.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func (w *walker) intEntry(d types.Dict, key string) (int, bool) {
	switch v := w.deref(d[key]).(type) {
	case types.Integer:
		return v.Value(), true
	case types.Float:
		return int(v.Value()), true
	}
	return 0, false
}

func (w *walker) dict(o types.Object) types.Dict {
	if o == nil {
		return nil
	}
	d, err := w.ctx.DereferenceDict(o)
	if err != nil {
		return nil
	}
	return d
}

// stream dereferences o to a stream dict with its raw bytes loaded.
func (w *walker) stream(o types.Object) (*types.StreamDict, error) {
	sd, _, err := w.ctx.DereferenceStreamDict(o)
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, fmt.Errorf("object %v is not a stream", o)
	}
	return sd, nil
}

// decoded returns the fully decoded content of a stream.
func (w *walker) decoded(o types.Object) ([]byte, error) {
	sd, err := w.stream(o)
	if err != nil {
		return nil, err
	}
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, err
		}
	}
	return sd.Content, nil
}

// sourceObject builds the raster description of an image object, resolving
// its colorspace, filter and soft mask.
func (w *walker) sourceObject(ref objectRef, depth int, name string) (SourceObject, error) {
	ir := *types.NewIndirectRef(ref.number, ref.generation)
	sd, err := w.stream(ir)
	if err != nil {
		return SourceObject{}, err
	}
	d := sd.Dict
	if !isImage(d) {
		return SourceObject{}, errNotImage
	}

	width, _ := w.intEntry(d, "Width")
	height, _ := w.intEntry(d, "Height")
	bpc, ok := w.intEntry(d, "BitsPerComponent")
	if !ok {
		if im, isBool := w.deref(d["ImageMask"]).(types.Boolean); isBool && im.Value() {
			bpc = 1
		}
	}
	filterName, parms := w.filter(d)

	src := &raster.Source{
		Name:             name,
		Width:            width,
		Height:           height,
		BitsPerComponent: bpc,
		ColorSpace:       w.colorSpace(d["ColorSpace"], 0),
		Filter:           filterName,
		DecodeParms:      parms,
		Data:             sd.Raw,
	}
	obj := SourceObject{ObjectNumber: ref.number, Generation: ref.generation, Source: src}

	if mref := indirectRef(d["SMask"]); mref != nil {
		obj.SoftMask = mref.ObjectNumber.Value()
		if depth < maxMaskDepth {
			mask, merr := w.sourceObject(objectRef{
				number:     mref.ObjectNumber.Value(),
				generation: mref.GenerationNumber.Value(),
			}, depth+1, fmt.Sprintf("%s-smask%d", name, obj.SoftMask))
			if merr != nil {
				w.logger.Warn("Cannot resolve soft mask", "image", name, "mask", obj.SoftMask, "error", merr)
			} else {
				src.SoftMask = mask.Source
			}
		}
	}
	return obj, nil
}

// filter returns the stream filter name and its integer decode parameters.
// Filter chains are reported joined so they surface as unsupported.
func (w *walker) filter(d types.Dict) (string, map[string]int) {
	var name string
	switch f := w.deref(d["Filter"]).(type) {
	case types.Name:
		name = string(f)
	case types.Array:
		for i, o := range f {
			if i > 0 {
				name += "+"
			}
			name += nameOf(w.deref(o))
		}
	}

	var pd types.Dict
	switch p := w.deref(d["DecodeParms"]).(type) {
	case types.Dict:
		pd = p
	case types.Array:
		if len(p) > 0 {
			pd = w.dict(p[0])
		}
	}
	if len(pd) == 0 {
		return name, nil
	}
	parms := map[string]int{}
	for k := range pd {
		if v, ok := w.intEntry(pd, k); ok {
			parms[k] = v
		}
	}
	return name, parms
}

// colorSpace resolves a colorspace object. Unknown families come back with
// KindUnknown and their name for diagnostics.
func (w *walker) colorSpace(o types.Object, depth int) raster.ColorSpace {
	switch v := w.deref(o).(type) {
	case types.Name:
		return deviceSpace(string(v))
	case types.Array:
		if len(v) == 0 {
			return raster.ColorSpace{}
		}
		family := nameOf(w.deref(v[0]))
		switch family {
		case "Indexed", "I":
			if len(v) < 4 || depth > 0 {
				return raster.ColorSpace{Name: family}
			}
			base := w.colorSpace(v[1], depth+1)
			hival := 0
			if n, ok := w.deref(v[2]).(types.Integer); ok {
				hival = n.Value()
			}
			lookup, err := w.lookup(v[3])
			if err != nil {
				w.logger.Warn("Cannot read palette", "document", w.name, "error", err)
				return raster.ColorSpace{Name: family}
			}
			return raster.ColorSpace{
				Kind:   raster.KindIndexed,
				Name:   "Indexed",
				Base:   base.Kind,
				HiVal:  hival,
				Lookup: lookup,
			}
		case "ICCBased":
			if len(v) < 2 {
				return raster.ColorSpace{Name: family}
			}
			sd, err := w.stream(v[1])
			if err != nil {
				return raster.ColorSpace{Name: family}
			}
			comps, _ := w.intEntry(sd.Dict, "N")
			switch comps {
			case 1:
				return raster.ColorSpace{Kind: raster.KindDeviceGray, Name: family}
			case 3:
				return raster.ColorSpace{Kind: raster.KindDeviceRGB, Name: family}
			}
			return raster.ColorSpace{Name: fmt.Sprintf("ICCBased/N%d", comps)}
		case "CalGray":
			return raster.ColorSpace{Kind: raster.KindDeviceGray, Name: family}
		case "CalRGB":
			return raster.ColorSpace{Kind: raster.KindDeviceRGB, Name: family}
		default:
			return raster.ColorSpace{Name: family}
		}
	}
	return raster.ColorSpace{}
}

func deviceSpace(name string) raster.ColorSpace {
	switch name {
	case "DeviceGray", "G", "CalGray":
		return raster.ColorSpace{Kind: raster.KindDeviceGray, Name: name}
	case "DeviceRGB", "RGB", "CalRGB":
		return raster.ColorSpace{Kind: raster.KindDeviceRGB, Name: name}
	}
	return raster.ColorSpace{Name: name}
}

// lookup returns the bytes of an Indexed palette, stored as a string or as
// its own (usually Flate-compressed) stream.
func (w *walker) lookup(o types.Object) ([]byte, error) {
	switch v := w.deref(o).(type) {
	case types.StringLiteral:
		return types.Unescape(string(v))
	case types.HexLiteral:
		return decodeHex(string(v))
	case types.StreamDict, *types.StreamDict:
		return w.decoded(o)
	}
	return nil, fmt.Errorf("unsupported palette lookup %T", o)
}
