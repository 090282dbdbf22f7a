// Package normalizer converts the locale strings recovered from statements
// into typed values: BRL amounts to decimals and period markers to dates.
// Conversions never fail; bad input becomes zero or NoDate.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/period"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/token"
	"github.com/FACorreiaa/ecad-statements/pkg/money"
)

// NoDate is the sentinel for an unknown or unparsable period.
var NoDate = time.Time{}

// Currency converts a BRL literal such as "1.234,56" to a decimal.
// Placeholders, empty strings and garbage become zero.
func Currency(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == token.PlaceholderLiteral {
		return decimal.Zero
	}

	// A value with a dot and no comma is already a plain decimal.
	european := !(strings.Contains(raw, ".") && !strings.Contains(raw, ","))
	d, err := money.ParseDecimal(raw, european)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Date converts a period marker such as "MARÇO/2024" to the first day of
// that month in UTC.
func Date(marker string) time.Time {
	year, month, ok := period.Parse(marker)
	if !ok {
		return NoDate
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// IsNoDate reports whether d is the NoDate sentinel.
func IsNoDate(d time.Time) bool {
	return d.IsZero()
}

// Columns are the derived period columns used for filtering.
type Columns struct {
	Day     string `json:"PERIODO_DIA" csv:"PERIODO_DIA"`
	Month   string `json:"PERIODO_MES" csv:"PERIODO_MES"`
	Quarter string `json:"PERIODO_TRIM" csv:"PERIODO_TRIM"`
	Year    string `json:"PERIODO_ANO" csv:"PERIODO_ANO"`
}

// PeriodColumns derives the day, month, quarter and year strings of d.
// NoDate yields empty columns.
func PeriodColumns(d time.Time) Columns {
	if IsNoDate(d) {
		return Columns{}
	}
	quarter := (int(d.Month())-1)/3 + 1
	return Columns{
		Day:     d.Format("2006-01-02"),
		Month:   d.Format("2006-01"),
		Quarter: fmt.Sprintf("%d-Q%d", d.Year(), quarter),
		Year:    d.Format("2006"),
	}
}

// Amounts converts six raw section values into typed amounts. Missing
// trailing entries are zero.
func Amounts(values []string) statement.Amounts {
	get := func(i int) decimal.Decimal {
		if i < len(values) {
			return Currency(values[i])
		}
		return decimal.Zero
	}
	return statement.Amounts{
		Distribution:     get(0),
		CreditRelease:    get(1),
		PendingRelease:   get(2),
		ParameterRelease: get(3),
		Adjustments:      get(4),
		Total:            get(5),
	}
}

// hasTotal reports whether the raw grand-total column holds a value.
func hasTotal(values []string) bool {
	return len(values) == len(statement.SectionColumns) &&
		values[len(values)-1] != token.PlaceholderLiteral
}

// Categories normalizes raw category rows. Rows without a grand total are
// dropped.
func Categories(source string, raw []statement.RawRow) []statement.CategoryRow {
	rows := make([]statement.CategoryRow, 0, len(raw))
	for _, r := range raw {
		if !hasTotal(r.Values) {
			continue
		}
		rows = append(rows, statement.CategoryRow{
			Source:  source,
			Name:    r.Name,
			Amounts: Amounts(r.Values),
			Date:    Date(r.Period),
		})
	}
	return rows
}

// Rubrics normalizes raw rubric rows. Rows without a grand total are
// dropped. SubPeriod and Model are left for the rubric mapper.
func Rubrics(source string, raw []statement.RawRow) []statement.RubricRow {
	rows := make([]statement.RubricRow, 0, len(raw))
	for _, r := range raw {
		if !hasTotal(r.Values) {
			continue
		}
		rows = append(rows, statement.RubricRow{
			Source:  source,
			Name:    r.Name,
			Amounts: Amounts(r.Values),
			Date:    Date(r.Period),
		})
	}
	return rows
}

// Works normalizes raw work rows. The work code is numeric; a code that does
// not parse is stored as zero.
func Works(source string, raw []statement.RawRow) []statement.WorkRow {
	rows := make([]statement.WorkRow, 0, len(raw))
	for _, r := range raw {
		rateio := ""
		if len(r.Values) > 0 {
			rateio = r.Values[len(r.Values)-1]
		}
		code, err := strconv.ParseInt(r.Code, 10, 64)
		if err != nil {
			code = 0
		}
		rows = append(rows, statement.WorkRow{
			Source: source,
			Code:   code,
			Name:   r.Name,
			Rateio: Currency(rateio),
			Date:   Date(r.Period),
		})
	}
	return rows
}
