package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable() *Table {
	table := NewTable([]string{"Assets", "AssetsCurrent", "Assets"})
	r1 := table.AddRow(GroupKey{Adsh: "B", Report: 2, Date: 20231231})
	r1.Values[0] = Present(decimal.NewFromInt(150))
	table.AddRow(GroupKey{Adsh: "A", Report: 3, Date: 20231231})
	table.AddRow(GroupKey{Adsh: "A", Report: 2, Date: 20231231})
	return table
}

func TestTable_Columns(t *testing.T) {
	table := newTestTable()

	assert.Equal(t, []string{"Assets", "AssetsCurrent"}, table.Columns())
	assert.True(t, table.HasColumn("AssetsCurrent"))
	assert.False(t, table.HasColumn("Liabilities"))
	assert.Equal(t, []string{"Equity", "Liabilities"}, table.MissingColumns([]string{"Liabilities", "Assets", "Equity", "Liabilities"}))
}

func TestTable_GetSet(t *testing.T) {
	table := newTestTable()

	assert.True(t, table.Get(0, "Assets").Valid)
	assert.False(t, table.Get(1, "Assets").Valid)
	assert.False(t, table.Get(0, "Unknown").Valid)

	table.Set(1, "AssetsCurrent", Present(decimal.NewFromInt(10)))
	assert.True(t, table.View(1).Has("AssetsCurrent"))
	assert.Equal(t, 2, table.MissingCount("AssetsCurrent"))
	assert.Equal(t, 2, table.MissingCount("Assets"))
	assert.Equal(t, 1, table.MissingInRow(0, []string{"Assets", "AssetsCurrent"}))

	assert.Panics(t, func() { table.Set(0, "Unknown", Missing()) })
}

func TestTable_SortAndProject(t *testing.T) {
	table := newTestTable()
	table.SortRows()

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "A", table.Rows[0].Key.Adsh)
	assert.Equal(t, 2, table.Rows[0].Key.Report)
	assert.Equal(t, "B", table.Rows[2].Key.Adsh)

	projected := table.Project([]string{"AssetsCurrent", "Assets", "Equity"})
	assert.Equal(t, []string{"AssetsCurrent", "Assets", "Equity"}, projected.Columns())
	assert.True(t, projected.Get(2, "Assets").Decimal.Equal(decimal.NewFromInt(150)))
	assert.False(t, projected.Get(2, "Equity").Valid)
}

func TestTable_CloneIsDeep(t *testing.T) {
	table := newTestTable()
	clone := table.Clone()

	clone.Set(0, "Assets", Present(decimal.NewFromInt(1)))
	assert.True(t, table.Get(0, "Assets").Decimal.Equal(decimal.NewFromInt(150)))
	assert.False(t, table.Equal(clone))

	assert.True(t, table.Equal(table.Clone()))
}

func TestTable_SliceAndAppend(t *testing.T) {
	table := newTestTable()
	head := table.Slice(0, 1)
	tail := table.Slice(1, 3)

	merged := NewTable(table.Columns())
	require.NoError(t, merged.Append(head))
	require.NoError(t, merged.Append(tail))
	assert.True(t, merged.Equal(table))

	other := NewTable([]string{"Liabilities"})
	assert.Error(t, merged.Append(other))
}

func TestGroupKey_Less(t *testing.T) {
	a := GroupKey{Adsh: "A", Report: 2, Date: 20231231}
	b := GroupKey{Adsh: "A", Report: 2, Date: 20240331}
	c := GroupKey{Adsh: "A", Coreg: "X", Report: 1, Date: 20200101}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, b.Less(c))
	assert.Equal(t, FilingKey{Adsh: "A", Coreg: "X"}, c.Filing())
	assert.Equal(t, "A//2/20231231", a.String())
}
