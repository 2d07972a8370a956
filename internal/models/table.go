package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// IdentifierColumns are the key columns every standardized table starts with
var IdentifierColumns = []string{"adsh", "coreg", "report", "ddate"}

// GroupKey identifies one wide row: one statement table of one filing at one date
type GroupKey struct {
	Adsh   string `json:"adsh" yaml:"adsh"`
	Coreg  string `json:"coreg" yaml:"coreg"`
	Report int    `json:"report" yaml:"report"`
	Date   int    `json:"ddate" yaml:"ddate"`
	Unit   string `json:"uom,omitempty" yaml:"uom,omitempty"`
}

// Filing returns the (filing, co-registrant) pair used for disambiguation
func (k GroupKey) Filing() FilingKey {
	return FilingKey{Adsh: k.Adsh, Coreg: k.Coreg}
}

// Less orders keys canonically by filing, co-registrant, report, date and unit
func (k GroupKey) Less(o GroupKey) bool {
	if k.Adsh != o.Adsh {
		return k.Adsh < o.Adsh
	}
	if k.Coreg != o.Coreg {
		return k.Coreg < o.Coreg
	}
	if k.Report != o.Report {
		return k.Report < o.Report
	}
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	return k.Unit < o.Unit
}

func (k GroupKey) String() string {
	s := fmt.Sprintf("%s/%s/%d/%d", k.Adsh, k.Coreg, k.Report, k.Date)
	if k.Unit != "" {
		s += "/" + k.Unit
	}
	return s
}

// FilingKey identifies a registrant within a filing
type FilingKey struct {
	Adsh  string `json:"adsh"`
	Coreg string `json:"coreg"`
}

// Row is one wide record. Values are aligned with the owning table's columns.
type Row struct {
	Key    GroupKey
	Values []decimal.NullDecimal
}

// Table is the wide working representation: one row per grouping key and
// one nullable decimal column per tag.
type Table struct {
	columns []string
	index   map[string]int
	Rows    []*Row
}

// NewTable creates an empty table with the given tag columns. Duplicates are ignored.
func NewTable(columns []string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Columns returns the tag columns in table order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether tag is a column of the table
func (t *Table) HasColumn(tag string) bool {
	_, ok := t.index[tag]
	return ok
}

// MissingColumns returns the tags that are not columns of the table, sorted
func (t *Table) MissingColumns(tags []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		if !t.HasColumn(tag) && !seen[tag] {
			seen[tag] = true
			missing = append(missing, tag)
		}
	}
	sort.Strings(missing)
	return missing
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// AddRow appends a row with all values missing
func (t *Table) AddRow(key GroupKey) *Row {
	row := &Row{Key: key, Values: make([]decimal.NullDecimal, len(t.columns))}
	t.Rows = append(t.Rows, row)
	return row
}

// View returns an accessor for row i
func (t *Table) View(i int) RowView {
	return RowView{table: t, row: t.Rows[i]}
}

// Get returns the value of tag in row i
func (t *Table) Get(i int, tag string) decimal.NullDecimal {
	return t.View(i).Get(tag)
}

// Set writes the value of tag in row i
func (t *Table) Set(i int, tag string, v decimal.NullDecimal) {
	t.View(i).Set(tag, v)
}

// MissingCount returns the number of rows in which tag is missing
func (t *Table) MissingCount(tag string) int {
	idx, ok := t.index[tag]
	if !ok {
		return len(t.Rows)
	}
	count := 0
	for _, row := range t.Rows {
		if !row.Values[idx].Valid {
			count++
		}
	}
	return count
}

// MissingInRow counts the tags that are missing in row i
func (t *Table) MissingInRow(i int, tags []string) int {
	v := t.View(i)
	count := 0
	for _, tag := range tags {
		if !v.Get(tag).Valid {
			count++
		}
	}
	return count
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := NewTable(t.columns)
	c.Rows = make([]*Row, len(t.Rows))
	for i, row := range t.Rows {
		values := make([]decimal.NullDecimal, len(row.Values))
		copy(values, row.Values)
		c.Rows[i] = &Row{Key: row.Key, Values: values}
	}
	return c
}

// Slice returns a table sharing rows [from, to) with t
func (t *Table) Slice(from, to int) *Table {
	s := NewTable(t.columns)
	s.Rows = t.Rows[from:to]
	return s
}

// Append adds the rows of o, which must carry the same columns
func (t *Table) Append(o *Table) error {
	if len(o.columns) != len(t.columns) {
		return fmt.Errorf("cannot append table with %d columns to table with %d columns", len(o.columns), len(t.columns))
	}
	for i, c := range o.columns {
		if t.columns[i] != c {
			return fmt.Errorf("column mismatch at %d: %s != %s", i, c, t.columns[i])
		}
	}
	t.Rows = append(t.Rows, o.Rows...)
	return nil
}

// Project returns a copy restricted to columns, in that order.
// Columns unknown to t are filled as missing.
func (t *Table) Project(columns []string) *Table {
	p := NewTable(columns)
	p.Rows = make([]*Row, len(t.Rows))
	for i, row := range t.Rows {
		values := make([]decimal.NullDecimal, len(p.columns))
		for j, c := range p.columns {
			if idx, ok := t.index[c]; ok {
				values[j] = row.Values[idx]
			}
		}
		p.Rows[i] = &Row{Key: row.Key, Values: values}
	}
	return p
}

// SortRows orders the rows canonically by key
func (t *Table) SortRows() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Key.Less(t.Rows[j].Key)
	})
}

// Equal reports whether both tables hold the same columns, keys and values
func (t *Table) Equal(o *Table) bool {
	if len(t.columns) != len(o.columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i, c := range t.columns {
		if o.columns[i] != c {
			return false
		}
	}
	for i, row := range t.Rows {
		other := o.Rows[i]
		if row.Key != other.Key {
			return false
		}
		for j, v := range row.Values {
			w := other.Values[j]
			if v.Valid != w.Valid || (v.Valid && !v.Decimal.Equal(w.Decimal)) {
				return false
			}
		}
	}
	return true
}

// RowView reads and writes the tag values of a single row
type RowView struct {
	table *Table
	row   *Row
}

// Key returns the grouping key of the row
func (v RowView) Key() GroupKey {
	return v.row.Key
}

// Get returns the value of tag. Unknown tags read as missing.
func (v RowView) Get(tag string) decimal.NullDecimal {
	idx, ok := v.table.index[tag]
	if !ok {
		return Missing()
	}
	return v.row.Values[idx]
}

// Has reports whether tag holds a value
func (v RowView) Has(tag string) bool {
	return v.Get(tag).Valid
}

// Set writes tag. Writing an unknown tag panics: rule sets are checked
// against the table columns before any write happens.
func (v RowView) Set(tag string, value decimal.NullDecimal) {
	idx, ok := v.table.index[tag]
	if !ok {
		panic(fmt.Sprintf("models: write to unknown column %q", tag))
	}
	v.row.Values[idx] = value
}
