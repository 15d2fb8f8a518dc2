package extract

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
)

// PageReader returns the non-blank pages of a PDF in order
type PageReader interface {
	Pages(ctx context.Context, pdfPath string) ([]string, error)
}

// Poppler reads PDF pages through poppler's pdftotext binary
type Poppler struct {
	bin string
}

// NewPoppler uses bin, or "pdftotext" from PATH when bin is empty
func NewPoppler(bin string) *Poppler {
	if bin == "" {
		bin = "pdftotext"
	}
	return &Poppler{bin: bin}
}

// Pages runs pdftotext in layout mode and splits its output on form feeds
func (p *Poppler) Pages(ctx context.Context, pdfPath string) ([]string, error) {
	var out, errOut bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, "-layout", pdfPath, "-")
	cmd.Stdout, cmd.Stderr = &out, &errOut

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "extract: %s %s: %s", p.bin, pdfPath, strings.TrimSpace(errOut.String()))
	}
	return splitPages(out.String()), nil
}

func splitPages(raw string) []string {
	var pages []string
	for _, page := range strings.Split(raw, "\f") {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	return pages
}

// PDFDecoder joins the pages of a PDF with newlines
type PDFDecoder struct {
	pages PageReader
}

// NewPDFDecoder creates a PDF decoder; nil means pdftotext on PATH
func NewPDFDecoder(pages PageReader) *PDFDecoder {
	if pages == nil {
		pages = NewPoppler("")
	}
	return &PDFDecoder{pages: pages}
}

func (d *PDFDecoder) Name() string { return "pdf" }

func (d *PDFDecoder) CanHandle(docType model.DocumentType) bool {
	return docType == model.DocumentPDF
}

func (d *PDFDecoder) Decode(ctx context.Context, path string) (string, error) {
	pages, err := d.pages.Pages(ctx, path)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}
