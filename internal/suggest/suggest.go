// Package suggest asks a language model which catalog category fits a
// transaction description. Suggestions never change a row by themselves;
// the reviewer applies them explicitly.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/logger"
)

// TextGenerator produces a text completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Suggester maps descriptions to catalog names through a TextGenerator.
type Suggester struct {
	generator TextGenerator
}

// NewSuggester creates a Suggester.
func NewSuggester(generator TextGenerator) *Suggester {
	return &Suggester{generator: generator}
}

// Suggest returns one catalog name for description, or domain.Uncategorized
// when the model's answer is not a catalog name.
func (s *Suggester) Suggest(ctx context.Context, description string, catalog []domain.Category) (string, error) {
	if len(catalog) == 0 || strings.TrimSpace(description) == "" {
		return domain.Uncategorized, nil
	}

	raw, err := s.generator.Generate(ctx, BuildPrompt(description, catalog))
	if err != nil {
		return "", fmt.Errorf("Suggest: %w", err)
	}

	answer := CleanAnswer(raw)
	for _, c := range catalog {
		if strings.EqualFold(c.Name, answer) {
			return c.Name, nil
		}
	}

	log := logger.Component(logger.FromContext(ctx), "suggest")
	log.Debug().
		Str("answer", answer).
		Msg("Model answer is not a catalog name")
	return domain.Uncategorized, nil
}

// BuildPrompt lists the catalog and asks for exactly one name.
func BuildPrompt(description string, catalog []domain.Category) string {
	var b strings.Builder
	b.WriteString("You categorise bank statement transactions for a small business.\n\n")
	b.WriteString("Categories (name: example keywords):\n")
	for _, c := range catalog {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if len(c.Keywords) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(c.Keywords, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nTransaction description: ")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Answer with exactly one category name from the list, spelled as listed.\n")
	fmt.Fprintf(&b, "- If none fits, answer %s.\n", domain.Uncategorized)
	b.WriteString("- Do NOT add explanations, punctuation, quotes or Markdown.\n")
	return b.String()
}

// CleanAnswer strips code fences, quotes and trailing punctuation the model
// may add around the category name, keeping only the first line.
func CleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```text ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.Trim(s, "`")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Category:")
	s = strings.Trim(strings.TrimSpace(s), "\"'`*.")
	return strings.TrimSpace(s)
}
