// Package layout rebuilds the visual text lines of a statement from the
// positioned text fragments a document renderer delivers.
package layout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
)

// RowTolerance is the maximum baseline distance (in layout units) for two
// fragments to belong to the same row.
const RowTolerance = 5.0

// Renderer turns document bytes into per-page text fragments, pages in
// document order.
type Renderer interface {
	Pages(ctx context.Context, data []byte) ([][]domain.TextFragment, error)
}

// Extractor reconstructs the full text of a document.
type Extractor struct {
	renderer  Renderer
	tolerance float64
}

// NewExtractor creates an Extractor over the given renderer.
func NewExtractor(renderer Renderer) *Extractor {
	return &Extractor{renderer: renderer, tolerance: RowTolerance}
}

// Extract returns the reconstructed text: rows top-to-bottom within a page,
// pages in order, newline-joined. Any renderer failure is reported as
// domain.ErrDocumentRead and no partial text is returned. Cancellation of ctx
// is returned as ctx's own error.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	pages, err := e.renderer.Pages(ctx, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", domain.ErrDocumentRead, err)
	}

	var lines []string
	for _, fragments := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, row := range GroupRows(fragments, e.tolerance) {
			lines = append(lines, row.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

type row struct {
	y         float64
	fragments []domain.TextFragment
}

// GroupRows buckets one page's fragments by baseline. A fragment joins the
// first existing row whose y is within tolerance, otherwise it starts a new
// row at its own y. Fragments inside a row are ordered left to right before
// being space-joined; rows are returned topmost (largest y) first.
func GroupRows(fragments []domain.TextFragment, tolerance float64) []domain.ReconstructedLine {
	var rows []*row
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		placed := false
		for _, r := range rows {
			if abs(r.y-f.Y) < tolerance {
				r.fragments = append(r.fragments, f)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, &row{y: f.Y, fragments: []domain.TextFragment{f}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]domain.ReconstructedLine, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.fragments, func(i, j int) bool { return r.fragments[i].X < r.fragments[j].X })
		parts := make([]string, len(r.fragments))
		for i, f := range r.fragments {
			parts[i] = strings.TrimSpace(f.Text)
		}
		lines = append(lines, domain.ReconstructedLine{Y: r.y, Text: strings.Join(parts, " ")})
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
