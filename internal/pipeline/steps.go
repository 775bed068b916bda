package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/opsconsole/internal/classifier"
	"github.com/dvloznov/opsconsole/internal/domain"
)

// PipelineStep represents a single step in the import pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Document     []byte
	Text         string
	Transactions []domain.ParsedTransaction
	Diagnostics  Diagnostics
}

// Diagnostics summarises how the document text was consumed.
type Diagnostics struct {
	Lines      int `json:"lines"`
	Matched    int `json:"matched"`
	Skipped    int `json:"skipped"`
	Classified int `json:"classified"`
}

// Step 1: CheckSizeStep rejects empty and oversized documents.
type CheckSizeStep struct {
	MaxBytes int64
}

func (s *CheckSizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Document) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrDocumentRead, errors.New("document is empty"))
	}
	if s.MaxBytes > 0 && int64(len(state.Document)) > s.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", domain.ErrDocumentTooLarge, len(state.Document), s.MaxBytes)
	}
	return nil
}

// Step 2: ExtractTextStep reconstructs the document's text lines.
type ExtractTextStep struct {
	Extractor TextExtractor
}

func (s *ExtractTextStep) Execute(ctx context.Context, state *PipelineState) error {
	text, err := s.Extractor.Extract(ctx, state.Document)
	if err != nil {
		return err
	}
	state.Text = text
	return nil
}

// Step 3: ParseLinesStep turns text lines into transaction candidates.
type ParseLinesStep struct {
	Parser LineParser
}

func (s *ParseLinesStep) Execute(ctx context.Context, state *PipelineState) error {
	res := s.Parser.Parse(state.Text)
	state.Diagnostics.Matched = res.Matched
	state.Diagnostics.Skipped = res.Skipped
	state.Diagnostics.Lines = res.Matched + res.Skipped
	if len(res.Transactions) == 0 {
		return fmt.Errorf("%w: %d lines did not match", domain.ErrNoTransactionsFound, res.Skipped)
	}
	state.Transactions = res.Transactions
	return nil
}

// Step 4: ClassifyStep assigns catalog categories.
type ClassifyStep struct {
	Catalog CategoryLister
}

func (s *ClassifyStep) Execute(ctx context.Context, state *PipelineState) error {
	cats, err := s.Catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("ClassifyStep: listing categories: %w", err)
	}
	state.Diagnostics.Classified = classifier.ClassifyAll(state.Transactions, cats)
	return nil
}
