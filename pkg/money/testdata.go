package money

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement test data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Amount Generation
// ============================================================================

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, BRL)
}

// Literal renders a non-negative amount the way statements print it: "1.234,56".
func Literal(m *Money) string {
	cents := m.Amount()
	if cents < 0 {
		cents = -cents
	}
	units := fmt.Sprintf("%d", cents/100)

	var grouped strings.Builder
	lead := len(units) % 3
	if lead == 0 {
		lead = 3
	}
	grouped.WriteString(units[:lead])
	for i := lead; i < len(units); i += 3 {
		grouped.WriteString(".")
		grouped.WriteString(units[i : i+3])
	}
	return fmt.Sprintf("%s,%02d", grouped.String(), cents%100)
}

// ============================================================================
// Statement Line Generation
// ============================================================================

var categoryNames = []string{
	"SHOW", "RADIO", "TV ABERTA", "TV POR ASSINATURA", "CINEMA",
	"SONORIZACAO AMBIENTAL", "CASAS DE FESTA", "CARNAVAL", "DIGITAL",
}

// TestWork is a generated work line with its expected values.
type TestWork struct {
	Code   int64
	Name   string
	Rateio *Money
	Line   string
}

// CategoryName returns a plausible category heading.
func (g *TestDataGenerator) CategoryName() string {
	return g.faker.RandomString(categoryNames)
}

// WorkName returns an uppercase song title with no digits.
func (g *TestDataGenerator) WorkName() string {
	return strings.ToUpper(g.faker.Adjective() + " " + g.faker.Noun())
}

// Work generates a work line: code, name, percentage columns and the rateio
// as the last amount.
func (g *TestDataGenerator) Work() TestWork {
	code := int64(g.faker.IntRange(10, 9999999))
	name := g.WorkName()
	rateio := g.RandomAmount(1, 5000000)
	share := g.RandomAmount(1, 10000)

	return TestWork{
		Code:   code,
		Name:   name,
		Rateio: rateio,
		Line:   fmt.Sprintf("%d %s %s %s", code, name, Literal(share), Literal(rateio)),
	}
}

// SectionLine generates a category or rubric line with all six amounts.
func (g *TestDataGenerator) SectionLine(name string) (string, []decimal.Decimal) {
	parts := []string{name}
	values := make([]decimal.Decimal, 6)
	for i := range values {
		m := g.RandomAmount(0, 10000000)
		values[i] = m.ToDecimal()
		parts = append(parts, Literal(m))
	}
	return strings.Join(parts, " "), values
}
