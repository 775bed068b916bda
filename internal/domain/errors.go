package domain

import "errors"

// Pipeline-level outcomes surfaced to the caller. Wrap them with
// fmt.Errorf("%w: %w", ErrX, cause) so both the kind and the cause survive.
var (
	// ErrDocumentRead means the document could not be decoded or rendered.
	ErrDocumentRead = errors.New("document could not be read")

	// ErrDocumentTooLarge means the document exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")

	// ErrNoTransactionsFound means no line matched the statement grammar.
	ErrNoTransactionsFound = errors.New("no transactions found in document")

	// ErrCommitFailure means the bulk write was rejected and nothing was written.
	ErrCommitFailure = errors.New("commit failed")

	// ErrCatalogSave means a category create/update/delete failed.
	ErrCatalogSave = errors.New("category could not be saved")

	// ErrDuplicateCategory means another category already uses the name.
	ErrDuplicateCategory = errors.New("category name already exists")

	// ErrCategoryNotFound means no category has the given id.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidCategory means a category name was empty or unknown.
	ErrInvalidCategory = errors.New("invalid category")
)
