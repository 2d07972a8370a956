// Package statements holds the rule definitions of the supported statement
// types. Every call builds a fresh, independent definition.
package statements

import (
	"fmt"
	"sort"
	"strings"

	"golang-fact-standardizer/internal/standardizer"
)

var registry = map[string]func() *standardizer.Definition{
	"BS": BalanceSheet,
	"IS": IncomeStatement,
	"CF": CashFlow,
}

// Lookup returns the definition of a statement code (bs, is, cf), ignoring case
func Lookup(code string) (*standardizer.Definition, error) {
	build, ok := registry[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("unknown statement %q (supported: %s)", code, strings.Join(Codes(), ", "))
	}
	return build(), nil
}

// Codes returns the supported statement codes
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, strings.ToLower(code))
	}
	sort.Strings(codes)
	return codes
}
