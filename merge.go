package packslip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is one rendered slip awaiting packaging.
type Document struct {
	Name string // kit ID; becomes the filename inside ZIP artifacts
	Data []byte
}

// Merger packages rendered slips into a single artifact.
type Merger interface {
	Merge(docs []Document) ([]byte, error)
	ContentType() string
}

// Compile-time interface checks
var (
	_ Merger = (*PDFMerger)(nil)
	_ Merger = (*ZIPMerger)(nil)
)

// PDFMerger concatenates slips into one multi-page PDF, ordered by
// document name so output is deterministic regardless of render
// completion order.
type PDFMerger struct{}

// NewPDFMerger creates a PDFMerger.
func NewPDFMerger() *PDFMerger {
	return &PDFMerger{}
}

// Merge concatenates the documents into one PDF.
func (m *PDFMerger) Merge(docs []Document) ([]byte, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	docs = sortDocuments(docs)

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		readers[i] = bytes.NewReader(doc.Data)
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return buf.Bytes(), nil
}

func (m *PDFMerger) ContentType() string { return "application/pdf" }

// ZIPMerger packages slips as individual PDF files in a ZIP archive,
// one entry per kit, named after the kit ID.
type ZIPMerger struct{}

// NewZIPMerger creates a ZIPMerger.
func NewZIPMerger() *ZIPMerger {
	return &ZIPMerger{}
}

// Merge writes one "<name>.pdf" entry per document.
func (m *ZIPMerger) Merge(docs []Document) ([]byte, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	docs = sortDocuments(docs)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, doc := range docs {
		w, err := zw.Create(doc.Name + ".pdf")
		if err != nil {
			return nil, fmt.Errorf("%w: creating entry %q: %v", ErrMerge, doc.Name, err)
		}
		if _, err := w.Write(doc.Data); err != nil {
			return nil, fmt.Errorf("%w: writing entry %q: %v", ErrMerge, doc.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return buf.Bytes(), nil
}

func (m *ZIPMerger) ContentType() string { return "application/zip" }

// sortDocuments returns a copy ordered by name with numeric-aware
// comparison, so "KIT-2" sorts before "KIT-10". The input is not
// modified.
func sortDocuments(docs []Document) []Document {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return naturalLess(sorted[i].Name, sorted[j].Name)
	})
	return sorted
}

// naturalLess compares strings segment by segment, treating runs of
// digits as numbers.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aNum, aRest := splitLeadingDigits(a)
			bNum, bRest := splitLeadingDigits(b)
			if aNum != bNum {
				return aNum < bNum
			}
			a, b = aRest, bRest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// splitLeadingDigits parses the leading digit run as an integer and
// returns the remainder. Leading zeros compare by value.
func splitLeadingDigits(s string) (uint64, string) {
	var n uint64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
