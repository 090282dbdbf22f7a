package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/ecad-statements/pkg/money"
)

// UnmappedModel labels rubric rows that found no canonical model.
const UnmappedModel = "Sem mapeamento"

// DefaultTopN is the number of works listed when no limit is given.
const DefaultTopN = 10

// Total is one aggregated bucket.
type Total struct {
	Key    string       `json:"key"`
	Amount *money.Money `json:"amount"`
	amount decimal.Decimal
}

// Totals are the grand totals of the three datasets.
type Totals struct {
	Categories *money.Money `json:"categorias"`
	Rubrics    *money.Money `json:"rubricas"`
	Works      *money.Money `json:"obras"`
}

// Summary aggregates a filtered, reconciled run.
type Summary struct {
	Totals     Totals  `json:"totals"`
	ByMonth    []Total `json:"by_month"`
	ByModel    []Total `json:"by_model"`
	ByCategory []Total `json:"by_category"`
	TopWorks   []Total `json:"top_works"`
}

// Build computes the summary of ds. ByMonth is in month order; the other
// breakdowns are sorted by amount, largest first.
func Build(ds consolidator.Datasets, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	byMonth := newBuckets()
	byModel := newBuckets()
	rubricTotal := decimal.Zero
	for _, r := range ds.Rubrics {
		rubricTotal = rubricTotal.Add(r.Total)
		month := normalizer.PeriodColumns(r.Date).Month
		if month == "" {
			month = "sem data"
		}
		byMonth.add(month, r.Total)

		model := r.Model
		if model == "" {
			model = UnmappedModel
		}
		byModel.add(model, r.Total)
	}

	byCategory := newBuckets()
	categoryTotal := decimal.Zero
	for _, c := range ds.Categories {
		categoryTotal = categoryTotal.Add(c.Total)
		byCategory.add(c.Name, c.Total)
	}

	byWork := newBuckets()
	workTotal := decimal.Zero
	for _, w := range ds.Works {
		workTotal = workTotal.Add(w.Rateio)
		byWork.add(w.Name, w.Rateio)
	}

	top := byWork.byAmount()
	if len(top) > topN {
		top = top[:topN]
	}

	return Summary{
		Totals: Totals{
			Categories: money.Sum(categoryTotal),
			Rubrics:    money.Sum(rubricTotal),
			Works:      money.Sum(workTotal),
		},
		ByMonth:    byMonth.byKey(),
		ByModel:    byModel.byAmount(),
		ByCategory: byCategory.byAmount(),
		TopWorks:   top,
	}
}

// buckets sums amounts per key, remembering first-seen order.
type buckets struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newBuckets() *buckets {
	return &buckets{sums: make(map[string]decimal.Decimal)}
}

func (b *buckets) add(key string, amount decimal.Decimal) {
	sum, ok := b.sums[key]
	if !ok {
		b.order = append(b.order, key)
	}
	b.sums[key] = sum.Add(amount)
}

func (b *buckets) totals() []Total {
	out := make([]Total, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, Total{Key: k, Amount: money.Sum(b.sums[k]), amount: b.sums[k]})
	}
	return out
}

func (b *buckets) byKey() []Total {
	out := b.totals()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (b *buckets) byAmount() []Total {
	out := b.totals()
	sort.SliceStable(out, func(i, j int) bool { return out[i].amount.GreaterThan(out[j].amount) })
	return out
}
