package pipeline

import (
	"context"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/statement"
)

// TextExtractor reconstructs the text of a statement document.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// LineParser turns reconstructed text into transaction candidates.
type LineParser interface {
	Parse(text string) statement.Result
}

// CategoryLister provides the catalog used for classification.
type CategoryLister interface {
	List(ctx context.Context) ([]domain.Category, error)
}
