package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/noah-isme/academic-report-api/pkg/storage"
)

// PDFDocument is a rendered PDF together with its page count.
type PDFDocument struct {
	Bytes []byte
	Pages int
}

// PDFMerger concatenates A4 portrait documents page by page.
type PDFMerger struct {
	compress bool
}

// NewPDFMerger builds a merger.
func NewPDFMerger(compress bool) *PDFMerger {
	return &PDFMerger{compress: compress}
}

// Merge appends every page of docs, in order, into one document. A single
// document is returned untouched.
func (m *PDFMerger) Merge(docs []PDFDocument) (merged PDFDocument, err error) {
	switch len(docs) {
	case 0:
		return PDFDocument{}, fmt.Errorf("merge requires at least one document")
	case 1:
		return docs[0], nil
	}
	for i, doc := range docs {
		if doc.Pages <= 0 {
			return PDFDocument{}, fmt.Errorf("document %d has no pages", i)
		}
	}

	workdir, err := os.MkdirTemp("", "report-merge-*")
	if err != nil {
		return PDFDocument{}, fmt.Errorf("create merge workspace: %w", err)
	}
	defer os.RemoveAll(workdir) //nolint:errcheck
	staging, err := storage.NewDir(workdir)
	if err != nil {
		return PDFDocument{}, err
	}

	out := gofpdf.New("P", "mm", "A4", "")
	out.SetCompression(m.compress)
	out.SetAutoPageBreak(false, 0)
	width, height := out.GetPageSize()

	// gofpdi panics on unreadable input.
	defer func() {
		if r := recover(); r != nil {
			merged, err = PDFDocument{}, fmt.Errorf("import pdf: %v", r)
		}
	}()

	// gofpdi names imported objects after their source file. Stream sources
	// all share an empty name, so every document gets its own staged file.
	imp := gofpdi.NewImporter()
	for i, doc := range docs {
		path, err := staging.Save(fmt.Sprintf("part-%04d.pdf", i), doc.Bytes)
		if err != nil {
			return PDFDocument{}, fmt.Errorf("stage document %d: %w", i, err)
		}
		for page := 1; page <= doc.Pages; page++ {
			tpl := imp.ImportPage(out, path, page, "/MediaBox")
			out.AddPage()
			imp.UseImportedTemplate(out, tpl, 0, 0, width, height)
		}
		if err := out.Error(); err != nil {
			return PDFDocument{}, fmt.Errorf("import document %d: %w", i, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := out.Output(buf); err != nil {
		return PDFDocument{}, fmt.Errorf("write merged pdf: %w", err)
	}
	return PDFDocument{Bytes: buf.Bytes(), Pages: out.PageCount()}, nil
}
