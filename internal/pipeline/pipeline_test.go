package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExtractor struct {
	ExtractFunc func(ctx context.Context, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return m.ExtractFunc(ctx, data)
}

type mockCatalog struct {
	ListFunc func(ctx context.Context) ([]domain.Category, error)
}

func (m *mockCatalog) List(ctx context.Context) ([]domain.Category, error) {
	return m.ListFunc(ctx)
}

func textExtractor(text string) *mockExtractor {
	return &mockExtractor{ExtractFunc: func(ctx context.Context, data []byte) (string, error) {
		return text, nil
	}}
}

func mealsCatalog() *mockCatalog {
	return &mockCatalog{ListFunc: func(ctx context.Context) ([]domain.Category, error) {
		return []domain.Category{{Name: "Meals", Keywords: []string{"starbucks"}}}, nil
	}}
}

func TestImporter_Import(t *testing.T) {
	text := "ACME BANK\n07/01 STARBUCKS STORE 4521 -5.25 1000.00\n07/02 Transfer -100.00 900.00\nEnd of statement"
	im := NewImporter(textExtractor(text), statement.NewParser(), mealsCatalog(), 1024)

	res, err := im.Import(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "Meals", res.Transactions[0].Category)
	assert.Equal(t, domain.Uncategorized, res.Transactions[1].Category)
	assert.Equal(t, Diagnostics{Lines: 4, Matched: 2, Skipped: 2, Classified: 1}, res.Diagnostics)
}

func TestImporter_Errors(t *testing.T) {
	failingExtractor := &mockExtractor{ExtractFunc: func(ctx context.Context, data []byte) (string, error) {
		return "", errors.Join(domain.ErrDocumentRead, errors.New("corrupt"))
	}}

	tests := []struct {
		name      string
		extractor TextExtractor
		document  []byte
		maxBytes  int64
		wantErr   error
	}{
		{name: "empty document", extractor: textExtractor(""), document: nil, maxBytes: 10, wantErr: domain.ErrDocumentRead},
		{name: "too large", extractor: textExtractor(""), document: make([]byte, 11), maxBytes: 10, wantErr: domain.ErrDocumentTooLarge},
		{name: "unreadable", extractor: failingExtractor, document: []byte("x"), maxBytes: 10, wantErr: domain.ErrDocumentRead},
		{name: "no matching lines", extractor: textExtractor("Header\nFooter"), document: []byte("x"), maxBytes: 10, wantErr: domain.ErrNoTransactionsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := NewImporter(tt.extractor, statement.NewParser(), mealsCatalog(), tt.maxBytes)
			res, err := im.Import(context.Background(), tt.document)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, res.Transactions)
		})
	}
}

func TestImporter_NoMatchesKeepsDiagnostics(t *testing.T) {
	im := NewImporter(textExtractor("Header\nFooter\n\n"), statement.NewParser(), mealsCatalog(), 0)

	res, err := im.Import(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, domain.ErrNoTransactionsFound)
	assert.Equal(t, 2, res.Diagnostics.Skipped)
	assert.Zero(t, res.Diagnostics.Matched)
}

func TestImporter_CatalogFailure(t *testing.T) {
	catalog := &mockCatalog{ListFunc: func(ctx context.Context) ([]domain.Category, error) {
		return nil, context.DeadlineExceeded
	}}
	im := NewImporter(textExtractor("10/23 Coffee -4.50 100.00"), statement.NewParser(), catalog, 0)

	_, err := im.Import(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipeline_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	extractor := &mockExtractor{ExtractFunc: func(ctx context.Context, data []byte) (string, error) {
		called = true
		return "", nil
	}}
	cancelStep := stepFunc(func(ctx context.Context, state *PipelineState) error {
		cancel()
		return nil
	})

	p := NewPipeline(cancelStep, &ExtractTextStep{Extractor: extractor})
	err := p.Execute(ctx, &PipelineState{Document: []byte("x")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

type stepFunc func(ctx context.Context, state *PipelineState) error

func (f stepFunc) Execute(ctx context.Context, state *PipelineState) error {
	return f(ctx, state)
}
