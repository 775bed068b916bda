// Package statement parses reconstructed statement text into transaction
// candidates.
package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// money is a signed amount with two decimals; the integer part is either
// plain digits or correctly grouped by commas in threes.
const money = `-?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`

var (
	// linePattern is anchored: date, lazy description, then the last two money
	// tokens on the line as amount and balance.
	linePattern = regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+(.+?)\s+(` + money + `)\s+(` + money + `)$`)

	moneyPattern = regexp.MustCompile(`^` + money + `$`)
)

// Result holds the parsed candidates plus line diagnostics.
type Result struct {
	Transactions []domain.ParsedTransaction
	// Matched is the number of lines that produced a transaction.
	Matched int
	// Skipped counts non-blank lines that did not match the grammar.
	Skipped int
}

// Parser turns statement text into ParsedTransaction values.
type Parser struct {
	newID func() string
}

// NewParser creates a Parser that assigns random local IDs.
func NewParser() *Parser {
	return &Parser{newID: uuid.NewString}
}

// Parse scans text line by line. Lines that do not match the full grammar
// are dropped and only counted. Categories are left as Uncategorized.
func (p *Parser) Parse(text string) Result {
	var res Result
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		tx, ok := p.parseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Transactions = append(res.Transactions, tx)
		res.Matched++
	}
	return res
}

func (p *Parser) parseLine(line string) (domain.ParsedTransaction, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return domain.ParsedTransaction{}, false
	}

	amount, err := ParseAmount(m[3])
	if err != nil {
		return domain.ParsedTransaction{}, false
	}
	balance, err := ParseAmount(m[4])
	if err != nil {
		return domain.ParsedTransaction{}, false
	}

	return domain.ParsedTransaction{
		LocalID:     p.newID(),
		Date:        m[1],
		Description: strings.TrimSpace(m[2]),
		Amount:      amount,
		Balance:     &balance,
		Category:    domain.Uncategorized,
		Status:      domain.RowStatusPending,
	}, true
}

// ParseAmount converts a statement money token such as "-1,204.50".
// Misplaced separators and missing digits are rejected.
func ParseAmount(token string) (decimal.Decimal, error) {
	token = strings.TrimSpace(token)
	if !moneyPattern.MatchString(token) {
		return decimal.Zero, fmt.Errorf("ParseAmount: malformed amount %q", token)
	}
	cleaned := strings.ReplaceAll(token, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: parsing %q: %w", token, err)
	}
	return d, nil
}
