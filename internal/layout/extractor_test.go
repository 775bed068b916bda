package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRenderer struct {
	PagesFunc func(ctx context.Context, data []byte) ([][]domain.TextFragment, error)
}

func (m *mockRenderer) Pages(ctx context.Context, data []byte) ([][]domain.TextFragment, error) {
	return m.PagesFunc(ctx, data)
}

func frag(text string, x, y float64) domain.TextFragment {
	return domain.TextFragment{Text: text, X: x, Y: y}
}

func TestGroupRows(t *testing.T) {
	tests := []struct {
		name      string
		fragments []domain.TextFragment
		want      []string
	}{
		{
			name:      "empty page",
			fragments: nil,
			want:      []string{},
		},
		{
			name: "fragments within tolerance share a row",
			fragments: []domain.TextFragment{
				frag("10/23", 10, 700), frag("Card Purchase", 60, 702.5), frag("-21.83", 300, 698),
			},
			want: []string{"10/23 Card Purchase -21.83"},
		},
		{
			name: "exactly tolerance apart starts a new row",
			fragments: []domain.TextFragment{
				frag("first", 10, 700), frag("second", 10, 695),
			},
			want: []string{"first", "second"},
		},
		{
			name: "rows sorted top to bottom",
			fragments: []domain.TextFragment{
				frag("bottom", 10, 100), frag("top", 10, 800), frag("middle", 10, 400),
			},
			want: []string{"top", "middle", "bottom"},
		},
		{
			name: "fragments reordered by x within a row",
			fragments: []domain.TextFragment{
				frag("865.10", 400, 500), frag("10/23", 10, 500), frag("-21.83", 300, 500), frag("Coffee", 60, 501),
			},
			want: []string{"10/23 Coffee -21.83 865.10"},
		},
		{
			name: "whitespace fragments skipped",
			fragments: []domain.TextFragment{
				frag("  ", 5, 300), frag("a", 10, 500), frag("\t", 20, 500), frag("b", 30, 500),
			},
			want: []string{"a b"},
		},
		{
			name: "fragment joins first matching row",
			fragments: []domain.TextFragment{
				frag("A", 10, 100), frag("B", 10, 108), frag("C", 50, 104),
			},
			want: []string{"B", "A C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := GroupRows(tt.fragments, RowTolerance)
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.Text
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupRows_KeepsRowBaseline(t *testing.T) {
	rows := GroupRows([]domain.TextFragment{frag("a", 0, 100), frag("b", 10, 103)}, RowTolerance)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].Y)
}

func TestExtractor_Extract(t *testing.T) {
	renderer := &mockRenderer{
		PagesFunc: func(ctx context.Context, data []byte) ([][]domain.TextFragment, error) {
			return [][]domain.TextFragment{
				{frag("Statement", 10, 800), frag("10/23 Coffee -4.50 100.00", 10, 700)},
				{frag("10/24 Fuel -40.00 60.00", 10, 700)},
			}, nil
		},
	}

	text, err := NewExtractor(renderer).Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "Statement\n10/23 Coffee -4.50 100.00\n10/24 Fuel -40.00 60.00", text)
}

func TestExtractor_RendererFailure(t *testing.T) {
	renderer := &mockRenderer{
		PagesFunc: func(ctx context.Context, data []byte) ([][]domain.TextFragment, error) {
			return nil, errors.New("bad xref")
		},
	}

	text, err := NewExtractor(renderer).Extract(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentRead)
	assert.Empty(t, text)
}

func TestExtractor_Cancelled(t *testing.T) {
	renderer := &mockRenderer{
		PagesFunc: func(ctx context.Context, data []byte) ([][]domain.TextFragment, error) {
			return [][]domain.TextFragment{{frag("x", 0, 0)}}, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(renderer).Extract(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_CancelledWhileRendering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	renderer := &mockRenderer{
		PagesFunc: func(ctx context.Context, data []byte) ([][]domain.TextFragment, error) {
			cancel()
			return nil, ctx.Err()
		},
	}

	_, err := NewExtractor(renderer).Extract(ctx, []byte("%PDF"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrDocumentRead)
}

func TestExtractor_PDFRendererRejectsGarbage(t *testing.T) {
	extractor := NewExtractor(NewPDFRenderer())

	for _, data := range [][]byte{nil, []byte("this is not a pdf at all")} {
		_, err := extractor.Extract(context.Background(), data)
		assert.ErrorIs(t, err, domain.ErrDocumentRead)
	}
}
