package layout

import (
	"testing"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func glyphs(s string, x, y, w float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for i, ch := range s {
		out = append(out, pdf.Text{FontSize: 10, X: x + float64(i)*w, Y: y, W: w, S: string(ch)})
	}
	return out
}

func TestMergeGlyphs(t *testing.T) {
	var in []pdf.Text
	in = append(in, glyphs("10/23", 10, 700, 5)...)
	in = append(in, pdf.Text{FontSize: 10, X: 35, Y: 700, W: 3, S: " "})
	in = append(in, glyphs("Coffee", 40, 700, 5)...)
	// gap wider than a quarter of the font size
	in = append(in, glyphs("-4.50", 200, 700, 5)...)
	// next row
	in = append(in, glyphs("Fuel", 40, 680, 5)...)

	got := mergeGlyphs(in)

	assert.Equal(t, []domain.TextFragment{
		{Text: "10/23", X: 10, Y: 700},
		{Text: "Coffee", X: 40, Y: 700},
		{Text: "-4.50", X: 200, Y: 700},
		{Text: "Fuel", X: 40, Y: 680},
	}, got)
}

func TestMergeGlyphs_Empty(t *testing.T) {
	assert.Nil(t, mergeGlyphs(nil))
	assert.Nil(t, mergeGlyphs([]pdf.Text{{S: " "}}))
}
