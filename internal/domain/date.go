package domain

import (
	"strconv"
	"strings"
)

// DateSortKey turns a partial "M/D" statement date into month*100+day so
// dates order correctly without zero padding. Unparseable dates sort last.
func DateSortKey(date string) int {
	month, day, ok := strings.Cut(date, "/")
	if !ok {
		return 0
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return 0
	}
	return m*100 + d
}
