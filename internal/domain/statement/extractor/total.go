package extractor

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

// StatedTotalTolerance is the largest accepted gap, in reais, between the
// summed work apportionments and the total printed on the statement.
var StatedTotalTolerance = decimal.RequireFromString("0.50")

// TotalCheck compares the work rows of a document with its stated total.
type TotalCheck struct {
	Calculated decimal.Decimal
	Stated     decimal.Decimal
	HasStated  bool
}

// Mismatch reports whether a stated total exists and differs from the sum by
// more than StatedTotalTolerance.
func (c TotalCheck) Mismatch() bool {
	return c.HasStated && c.Calculated.Sub(c.Stated).Abs().GreaterThan(StatedTotalTolerance)
}

// CheckWorkTotal sums the rateio of rows and pairs it with the stated total.
func CheckWorkTotal(rows []statement.WorkRow, stated string) TotalCheck {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Rateio)
	}
	return TotalCheck{
		Calculated: sum,
		Stated:     normalizer.Currency(stated),
		HasStated:  stated != "",
	}
}
