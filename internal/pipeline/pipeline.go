// Package pipeline turns a statement document into classified transaction
// candidates ready for review.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/logger"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure or
// when the context is cancelled between steps.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled before step %d: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewStatementImportPipeline creates the standard 4-step statement import pipeline.
func NewStatementImportPipeline(extractor TextExtractor, parser LineParser, catalog CategoryLister, maxBytes int64) *Pipeline {
	return NewPipeline(
		&CheckSizeStep{MaxBytes: maxBytes},
		&ExtractTextStep{Extractor: extractor},
		&ParseLinesStep{Parser: parser},
		&ClassifyStep{Catalog: catalog},
	)
}

// Result is the outcome of one import run.
type Result struct {
	Transactions []domain.ParsedTransaction
	Diagnostics  Diagnostics
	Elapsed      time.Duration
}

// Importer runs the import pipeline and logs its outcome.
type Importer struct {
	pipeline *Pipeline
}

// NewImporter wires the standard pipeline.
func NewImporter(extractor TextExtractor, parser LineParser, catalog CategoryLister, maxBytes int64) *Importer {
	return &Importer{pipeline: NewStatementImportPipeline(extractor, parser, catalog, maxBytes)}
}

// NewImporterWithPipeline wraps a custom pipeline.
func NewImporterWithPipeline(p *Pipeline) *Importer {
	return &Importer{pipeline: p}
}

// Import parses and classifies a document. Diagnostics are filled in as far
// as the pipeline got, even on failure.
func (im *Importer) Import(ctx context.Context, document []byte) (Result, error) {
	log := logger.Component(logger.FromContext(ctx), "pipeline")
	start := time.Now()

	state := &PipelineState{Document: document}
	err := im.pipeline.Execute(ctx, state)

	res := Result{
		Transactions: state.Transactions,
		Diagnostics:  state.Diagnostics,
		Elapsed:      time.Since(start),
	}

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Int("bytes", len(document)).
		Int("matched", res.Diagnostics.Matched).
		Int("skipped", res.Diagnostics.Skipped).
		Int("classified", res.Diagnostics.Classified).
		Dur("elapsed", res.Elapsed).
		Msg("Statement import finished")

	if err != nil {
		res.Transactions = nil
		return res, err
	}
	return res, nil
}
