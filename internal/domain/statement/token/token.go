// Package token classifies whitespace-delimited statement tokens. Every
// extractor uses the same pattern so column alignment stays consistent.
package token

import (
	"regexp"
	"strings"
)

// Kind is the class of a token.
type Kind int

const (
	Name Kind = iota
	Currency
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case Currency:
		return "currency"
	case Placeholder:
		return "placeholder"
	default:
		return "name"
	}
}

// PlaceholderLiteral marks a column with no value.
const PlaceholderLiteral = "---"

// currencyPattern matches BRL amounts such as 12,34 or 1.234.567,89.
var currencyPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})*,\d{2}$`)

// Classify returns the kind of a single token.
func Classify(tok string) Kind {
	switch {
	case tok == PlaceholderLiteral:
		return Placeholder
	case currencyPattern.MatchString(tok):
		return Currency
	default:
		return Name
	}
}

// IsCurrency reports whether tok is a locale currency amount.
func IsCurrency(tok string) bool {
	return currencyPattern.MatchString(tok)
}

// IsValue reports whether tok fills a numeric column.
func IsValue(tok string) bool {
	return Classify(tok) != Name
}

// Split separates the tokens of a line into name fragments and value tokens,
// both in original order.
func Split(line string) (names, values []string) {
	for _, tok := range strings.Fields(line) {
		if IsValue(tok) {
			values = append(values, tok)
			continue
		}
		names = append(names, tok)
	}
	return names, values
}
