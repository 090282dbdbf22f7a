// Package reconciler aligns the work apportionments of a run with the rubric
// grand total, which is the authoritative figure on the statement.
package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

// Tolerance is the largest relative drift left uncorrected.
var Tolerance = decimal.RequireFromString("0.01")

// Result describes one reconciliation.
type Result struct {
	Factor      decimal.Decimal `json:"factor"`
	Applied     bool            `json:"applied"`
	Skipped     string          `json:"skipped,omitempty"`
	RubricTotal decimal.Decimal `json:"rubric_total"`
	WorkBefore  decimal.Decimal `json:"work_total_before"`
	WorkAfter   decimal.Decimal `json:"work_total_after"`
}

// Reasons a reconciliation is skipped.
const (
	SkipNoRubrics   = "no rubric rows"
	SkipNonPositive = "non-positive totals"
)

// Reconcile scales every work rateio by rubricTotal/workTotal when the two
// differ by more than Tolerance. works is never modified; the returned slice
// is always a fresh copy.
func Reconcile(rubrics []statement.RubricRow, works []statement.WorkRow) ([]statement.WorkRow, Result) {
	out := make([]statement.WorkRow, len(works))
	copy(out, works)

	res := Result{
		Factor:      decimal.NewFromInt(1),
		RubricTotal: RubricTotal(rubrics),
		WorkBefore:  WorkTotal(works),
	}
	res.WorkAfter = res.WorkBefore

	if len(rubrics) == 0 {
		res.Skipped = SkipNoRubrics
		return out, res
	}
	if !res.RubricTotal.IsPositive() || !res.WorkBefore.IsPositive() {
		res.Skipped = SkipNonPositive
		return out, res
	}

	factor := res.RubricTotal.Div(res.WorkBefore)
	res.Factor = factor
	if decimal.NewFromInt(1).Sub(factor).Abs().LessThanOrEqual(Tolerance) {
		return out, res
	}

	for i := range out {
		out[i].Rateio = out[i].Rateio.Mul(factor)
	}
	res.Applied = true
	res.WorkAfter = WorkTotal(out)
	return out, res
}

// RubricTotal sums the grand-total column of rubrics.
func RubricTotal(rows []statement.RubricRow) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Total)
	}
	return sum
}

// WorkTotal sums the rateio of works.
func WorkTotal(rows []statement.WorkRow) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Rateio)
	}
	return sum
}
