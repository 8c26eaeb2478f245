package query

import (
	"cmp"
	"fmt"
	"math"
	"testing"

	"codpage_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID       string
	Name     string
	Category string
	Price    int
}

var itemSpec = Spec[item]{
	Search: func(it item, term string) bool { return ContainsFold(term, it.Name) },
	Filters: []Filter[item]{{
		Value: func(p models.QueryParams) string { return p.Category },
		Field: func(it item) string { return it.Category },
	}},
	SortKeys: map[string]func(a, b item) int{
		"name":  func(a, b item) int { return cmp.Compare(a.Name, b.Name) },
		"price": func(a, b item) int { return cmp.Compare(a.Price, b.Price) },
	},
}

func fixtures(n int) []item {
	out := make([]item, n)
	for i := range out {
		cat := "books"
		if i%3 == 0 {
			cat = "toys"
		}
		out[i] = item{ID: fmt.Sprintf("i%02d", i), Name: fmt.Sprintf("Item %02d", i), Category: cat, Price: i % 4}
	}
	return out
}

func TestRun_DefaultsAndPagination(t *testing.T) {
	items := fixtures(25)

	res := Run(items, models.QueryParams{}, itemSpec)

	assert.Len(t, res.Items, 10)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 10, Total: 25, TotalPages: 3}, res.Pagination)
	assert.Equal(t, "i00", res.Items[0].ID)
}

func TestRun_PagesCoverTotalExactlyOnce(t *testing.T) {
	items := fixtures(23)
	params := models.QueryParams{Limit: 4, Category: "books"}

	first := Run(items, params, itemSpec)
	seen := map[string]bool{}
	count := 0
	for page := 1; page <= first.Pagination.TotalPages; page++ {
		params.Page = page
		res := Run(items, params, itemSpec)
		for _, it := range res.Items {
			assert.False(t, seen[it.ID], "doublon %s", it.ID)
			seen[it.ID] = true
		}
		count += len(res.Items)
	}

	assert.Equal(t, first.Pagination.Total, count)
}

func TestRun_PageBeyondTotalIsEmpty(t *testing.T) {
	res := Run(fixtures(5), models.QueryParams{Page: 9, Limit: 2}, itemSpec)

	require.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.TotalPages)

	huge := Run(fixtures(5), models.QueryParams{Page: math.MaxInt64 / 50, Limit: 100}, itemSpec)
	require.NotNil(t, huge.Items)
	assert.Empty(t, huge.Items)
	assert.Equal(t, 5, huge.Pagination.Total)
	assert.Equal(t, 1, huge.Pagination.TotalPages)
}

func TestRun_FilterBeforeSearch(t *testing.T) {
	items := []item{
		{ID: "a", Name: "Red Ball", Category: "toys"},
		{ID: "b", Name: "Red Book", Category: "books"},
		{ID: "c", Name: "Blue ball", Category: "toys"},
	}

	res := Run(items, models.QueryParams{Search: "BALL", Category: "toys"}, itemSpec)
	assert.Equal(t, []string{"a", "c"}, ids(res.Items))

	res = Run(items, models.QueryParams{Search: "red", Category: "books"}, itemSpec)
	assert.Equal(t, []string{"b"}, ids(res.Items))
}

func TestRun_StableSortBothDirections(t *testing.T) {
	items := []item{
		{ID: "a", Price: 2},
		{ID: "b", Price: 1},
		{ID: "c", Price: 2},
		{ID: "d", Price: 1},
	}

	asc := Run(items, models.QueryParams{SortBy: "price"}, itemSpec)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(asc.Items))

	desc := Run(items, models.QueryParams{SortBy: "price", SortOrder: models.SortDesc}, itemSpec)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(desc.Items))
}

func TestRun_UnknownSortKeepsInsertionOrder(t *testing.T) {
	items := []item{{ID: "z", Name: "Z"}, {ID: "a", Name: "A"}}

	res := Run(items, models.QueryParams{SortBy: "color"}, itemSpec)

	assert.Equal(t, []string{"z", "a"}, ids(res.Items))
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	items := []item{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}

	res := Run(items, models.QueryParams{SortBy: "name"}, itemSpec)
	res.Items[0].Name = "changed"

	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "A", items[1].Name)
}

func TestRun_LimitIsCapped(t *testing.T) {
	res := Run(fixtures(150), models.QueryParams{Limit: 500}, itemSpec)

	assert.Len(t, res.Items, models.MaxLimit)
	assert.Equal(t, 2, res.Pagination.TotalPages)
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
