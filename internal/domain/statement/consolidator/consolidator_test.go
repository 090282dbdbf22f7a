package consolidator

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

func fakeTables(faker *gofakeit.Faker, docs int) []Tables {
	tables := make([]Tables, docs)
	for i := range tables {
		name := fmt.Sprintf("2024_%02d", i+1)
		t := Tables{Document: name}
		rows := faker.Number(1, 5)
		for j := 0; j < rows; j++ {
			t.Categories = append(t.Categories, statement.CategoryRow{
				Source:  name,
				Name:    faker.Word(),
				Amounts: statement.Amounts{Total: decimal.NewFromFloat(faker.Price(1, 1000)).Round(2)},
			})
			t.Rubrics = append(t.Rubrics, statement.RubricRow{
				Source:  name,
				Name:    faker.Word(),
				Amounts: statement.Amounts{Total: decimal.NewFromFloat(faker.Price(1, 1000)).Round(2)},
			})
			t.Works = append(t.Works, statement.WorkRow{
				Source: name,
				Code:   int64(faker.Number(10, 99999)),
				Name:   faker.Word(),
				Rateio: decimal.NewFromFloat(faker.Price(1, 100)).Round(2),
			})
		}
		tables[i] = t
	}
	return tables
}

func TestConsolidate_Empty(t *testing.T) {
	got := Consolidate(nil)

	assert.NotNil(t, got.Categories)
	assert.NotNil(t, got.Rubrics)
	assert.NotNil(t, got.Works)
	assert.Equal(t, map[statement.TableKind]int{
		statement.KindCategory: 0,
		statement.KindRubric:   0,
		statement.KindWork:     0,
	}, got.Len())
}

func TestConsolidate_PreservesDocumentOrder(t *testing.T) {
	tables := []Tables{
		{Document: "2024_02", Works: []statement.WorkRow{{Source: "2024_02", Code: 1}, {Source: "2024_02", Code: 2}}},
		{Document: "2024_01", Works: []statement.WorkRow{{Source: "2024_01", Code: 3}}},
	}

	got := Consolidate(tables)
	require.Len(t, got.Works, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got.Works[0].Code, got.Works[1].Code, got.Works[2].Code})
}

func TestConsolidate_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)
	tables := fakeTables(faker, 6)

	first := Consolidate(tables)
	second := Consolidate(tables)

	assert.Equal(t, "", cmp.Diff(first, second))

	want := 0
	for _, tb := range tables {
		want += len(tb.Works)
	}
	assert.Len(t, first.Works, want)
}

func TestDataset_Freeze(t *testing.T) {
	ds := NewDataset[int]()
	ds.Append(1, 2)
	ds.Append(3)

	rows := ds.Freeze()
	assert.Equal(t, []int{1, 2, 3}, rows)
	assert.Equal(t, 3, ds.Len())

	rows[0] = 99
	assert.Equal(t, []int{1, 2, 3}, ds.Rows())

	assert.Panics(t, func() { ds.Append(4) })
}
