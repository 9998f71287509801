package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return buildTestTable(
		raw("1", "iPhone", "1", "700", "04/19/19 08:46", "1 A St, Dallas, TX 75001"),
		raw("2", "Wired Headphones", "2", "11.99", "05/07/19 22:30", "2 B St, Boston, MA 02215"),
		raw("3", "iPhone", "1", "700", "05/12/19 14:38", "3 C St, Boston, MA 02215"),
		raw("4", "Lightning Charging Cable", "1", "14.95", "bad date", "4 D St, Dallas, TX 75001"),
		raw("5", "Wired Headphones", "1", "11.99", "04/30/19 09:27", "Warehouse"),
	)
}

func ids(v View) []int64 {
	var out []int64
	v.Each(func(r *Record) bool {
		out = append(out, r.OrderID)
		return true
	})
	return out
}

func TestTable_Options(t *testing.T) {
	table := sampleTable()
	opts := table.Options()

	assert.Equal(t, []string{"iPhone", "Wired Headphones", "Lightning Charging Cable"}, opts.Products)
	assert.Equal(t, []string{"Dallas", "Boston", Unknown}, opts.Cities)
	assert.Equal(t, []string{"April", "May", Unknown}, opts.Months)
}

func TestFilter_AllOptionsReproducesTable(t *testing.T) {
	table := sampleTable()
	view := Filter(table, table.Options().All())

	assert.Equal(t, table.Len(), view.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(view))
}

func TestFilter_Conjunction(t *testing.T) {
	table := sampleTable()
	opts := table.Options()

	tests := []struct {
		name string
		sel  Selection
		want []int64
	}{
		{
			name: "single product",
			sel:  Selection{Products: []string{"iPhone"}, Cities: opts.Cities, Months: opts.Months},
			want: []int64{1, 3},
		},
		{
			name: "product and city",
			sel:  Selection{Products: []string{"iPhone"}, Cities: []string{"Boston"}, Months: opts.Months},
			want: []int64{3},
		},
		{
			name: "unknown month",
			sel:  Selection{Products: opts.Products, Cities: opts.Cities, Months: []string{Unknown}},
			want: []int64{4},
		},
		{
			name: "unknown city",
			sel:  Selection{Products: opts.Products, Cities: []string{Unknown}, Months: opts.Months},
			want: []int64{5},
		},
		{
			name: "value not in table",
			sel:  Selection{Products: []string{"Toaster"}, Cities: opts.Cities, Months: opts.Months},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(table, tt.sel)))
		})
	}
}

func TestFilter_EmptyFacetYieldsNoRows(t *testing.T) {
	table := sampleTable()
	all := table.Options().All()

	for name, sel := range map[string]Selection{
		"products": {Products: nil, Cities: all.Cities, Months: all.Months},
		"cities":   {Products: all.Products, Cities: []string{}, Months: all.Months},
		"months":   {Products: all.Products, Cities: all.Cities},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Zero(t, Filter(table, sel).Len())
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	table := sampleTable()
	sel := Selection{
		Products: []string{"Wired Headphones", "iPhone"},
		Cities:   []string{"Boston", Unknown},
		Months:   []string{"May", "April"},
	}

	first := ids(Filter(table, sel))
	second := ids(Filter(table, sel))
	assert.Equal(t, first, second)
	assert.Equal(t, []int64{2, 3, 5}, first)
	assert.Equal(t, 5, table.Len())
}

func TestSelection_Key(t *testing.T) {
	a := Selection{Products: []string{"b", "a", "a"}, Cities: []string{"x"}, Months: []string{"May"}}
	b := Selection{Products: []string{"a", "b"}, Cities: []string{"x"}, Months: []string{"May"}}
	c := Selection{Products: []string{"a"}, Cities: []string{"b", "x"}, Months: []string{"May"}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, Selection{}.Key(), Selection{Products: []string{}}.Key())
}

func TestView_Slice(t *testing.T) {
	view := sampleTable().All()

	assert.Equal(t, []int64{2, 3}, ids(view.Slice(1, 2)))
	assert.Equal(t, []int64{5}, ids(view.Slice(4, 10)))
	assert.Nil(t, ids(view.Slice(9, 10)))
	assert.Equal(t, 5, view.Slice(-1, -1).Len())

	require.Equal(t, 5, view.Len())
	assert.Equal(t, int64(1), view.Row(0).OrderID)
}
