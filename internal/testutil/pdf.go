package testutil

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// ImageObject describes an image XObject for PDFBuilder. ColorSpace is raw
// PDF syntax, e.g. "/DeviceRGB" or "7 0 R". Data is stored as given.
type ImageObject struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	Filter           string
	DecodeParms      string
	SMask            int
	Data             []byte
}

// PDFBuilder assembles small uncompressed PDF documents with a valid xref
// table. Objects 1 and 2 are the catalog and page tree.
type PDFBuilder struct {
	objects map[int][]byte
	next    int
	pages   []int
}

// NewPDFBuilder returns an empty document.
func NewPDFBuilder() *PDFBuilder {
	return &PDFBuilder{objects: map[int][]byte{}, next: 3}
}

// AddObject adds a plain object and returns its number.
func (b *PDFBuilder) AddObject(body string) int {
	n := b.next
	b.next++
	b.objects[n] = []byte(body)
	return n
}

// AddStream adds a stream object with the given dictionary entries.
func (b *PDFBuilder) AddStream(dict string, data []byte) int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	n := b.next
	b.next++
	b.objects[n] = buf.Bytes()
	return n
}

// AddImage adds an image XObject.
func (b *PDFBuilder) AddImage(img ImageObject) int {
	var dict strings.Builder
	fmt.Fprintf(&dict, "/Type /XObject /Subtype /Image /Width %d /Height %d /BitsPerComponent %d",
		img.Width, img.Height, img.BitsPerComponent)
	if img.ColorSpace != "" {
		fmt.Fprintf(&dict, " /ColorSpace %s", img.ColorSpace)
	}
	if img.Filter != "" {
		fmt.Fprintf(&dict, " /Filter /%s", img.Filter)
	}
	if img.DecodeParms != "" {
		fmt.Fprintf(&dict, " /DecodeParms %s", img.DecodeParms)
	}
	if img.SMask > 0 {
		fmt.Fprintf(&dict, " /SMask %d 0 R", img.SMask)
	}
	return b.AddStream(dict.String(), img.Data)
}

// AddForm adds a Form XObject painting the given content with its own
// XObject resources.
func (b *PDFBuilder) AddForm(content string, xobjects map[string]int) int {
	dict := "/Type /XObject /Subtype /Form /BBox [0 0 100 100] /Resources " + resources(xobjects)
	return b.AddStream(dict, []byte(content))
}

// AddPage adds a page painting content, with the named XObjects available
// in its resources.
func (b *PDFBuilder) AddPage(content string, xobjects map[string]int) int {
	contents := b.AddStream("", []byte(content))
	page := b.AddObject(fmt.Sprintf(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources %s /Contents %d 0 R >>",
		resources(xobjects), contents))
	b.pages = append(b.pages, page)
	return page
}

// AddImagePage adds a page that paints a single image as /Im0.
func (b *PDFBuilder) AddImagePage(image int) int {
	return b.AddPage("q 100 0 0 100 0 0 cm /Im0 Do Q", map[string]int{"Im0": image})
}

func resources(xobjects map[string]int) string {
	if len(xobjects) == 0 {
		return "<< >>"
	}
	names := make([]string, 0, len(xobjects))
	for name := range xobjects {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("<< /XObject <<")
	for _, name := range names {
		fmt.Fprintf(&sb, " /%s %d 0 R", name, xobjects[name])
	}
	sb.WriteString(" >> >>")
	return sb.String()
}

// Bytes serializes the document.
func (b *PDFBuilder) Bytes() []byte {
	kids := make([]string, len(b.pages))
	for i, p := range b.pages {
		kids[i] = fmt.Sprintf("%d 0 R", p)
	}
	b.objects[1] = []byte("<< /Type /Catalog /Pages 2 0 R >>")
	b.objects[2] = []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(b.pages)))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
	offsets := make([]int, b.next)
	for n := 1; n < b.next; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", n)
		buf.Write(b.objects[n])
		buf.WriteString("\nendobj\n")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", b.next)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < b.next; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", b.next, xref)
	return buf.Bytes()
}

// GrayImage returns an 8-bit Flate-compressed DeviceGray image of the given
// size filled with value.
func GrayImage(width, height int, value byte) ImageObject {
	return ImageObject{
		Width: width, Height: height, BitsPerComponent: 8,
		ColorSpace: "/DeviceGray", Filter: "FlateDecode",
		Data: Deflate(bytes.Repeat([]byte{value}, width*height)),
	}
}

// ImagePagesPDF builds a document with one page per width, each painting a
// single gray image of that width and height 4.
func ImagePagesPDF(widths ...int) []byte {
	b := NewPDFBuilder()
	for _, w := range widths {
		b.AddImagePage(b.AddImage(GrayImage(w, 4, 128)))
	}
	return b.Bytes()
}
