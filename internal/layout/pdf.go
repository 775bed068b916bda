package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/ledongthuc/pdf"
)

// PDFRenderer reads the text layer of a PDF. It does not OCR scanned pages.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Pages returns the positioned text of every page. The PDF library panics on
// some malformed content streams; those panics are returned as errors.
func (r *PDFRenderer) Pages(ctx context.Context, data []byte) (pages [][]domain.TextFragment, err error) {
	if len(data) == 0 {
		return nil, errors.New("PDFRenderer: empty document")
	}

	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("PDFRenderer: malformed document: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("PDFRenderer: opening document: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, errors.New("PDFRenderer: document has no pages")
	}

	pages = make([][]domain.TextFragment, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, mergeGlyphs(page.Content().Text))
	}
	return pages, nil
}

// mergeGlyphs joins the per-glyph runs emitted by the PDF library into word
// fragments. Consecutive glyphs on the same baseline with no visible gap are
// one fragment; a space glyph or a horizontal gap ends it.
func mergeGlyphs(glyphs []pdf.Text) []domain.TextFragment {
	var (
		out     []domain.TextFragment
		current strings.Builder
		start   pdf.Text
		last    pdf.Text
		open    bool
	)

	flush := func() {
		if open && strings.TrimSpace(current.String()) != "" {
			out = append(out, domain.TextFragment{Text: current.String(), X: start.X, Y: start.Y})
		}
		current.Reset()
		open = false
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if open {
			gap := g.X - (last.X + last.W)
			if abs(g.Y-last.Y) > 0.5 || gap > glyphGap(last) || gap < -last.W {
				flush()
			}
		}
		if !open {
			start = g
			open = true
		}
		current.WriteString(g.S)
		last = g
	}
	flush()
	return out
}

// glyphGap is the widest horizontal gap still treated as inside a word.
func glyphGap(g pdf.Text) float64 {
	gap := g.FontSize * 0.25
	if gap < 1 {
		return 1
	}
	return gap
}
