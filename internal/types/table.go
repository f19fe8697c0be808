package types

import "slices"

// Row maps a column name to its cell. Columns missing from the map read as Null.
type Row map[string]Value

// Table is an ordered set of named columns plus ordered rows.
// No schema is declared beyond the column names discovered at load time.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows. A nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	return slices.Index(t.Columns, name)
}

// Append adds a row. Cells for unknown columns are kept but not listed in Columns.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Get returns the cell at row i, column col, or Null.
func (t *Table) Get(i int, col string) Value {
	return t.Rows[i][col]
}

// Column returns every value of col in row order.
func (t *Table) Column(col string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// DropColumns removes the named columns and their cells. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	t.Columns = slices.DeleteFunc(t.Columns, func(c string) bool {
		return slices.Contains(names, c)
	})
	for _, r := range t.Rows {
		for _, n := range names {
			delete(r, n)
		}
	}
}

// InsertColumn places a new column at pos holding values[i] for row i.
// values must have one entry per row.
func (t *Table) InsertColumn(pos int, name string, values []Value) {
	t.Columns = slices.Insert(t.Columns, pos, name)
	for i, r := range t.Rows {
		r[name] = values[i]
	}
}

// RenameColumn changes old to name in the header and in every row.
func (t *Table) RenameColumn(old, name string) {
	if old == name {
		return
	}
	i := t.ColumnIndex(old)
	if i < 0 {
		return
	}
	t.Columns[i] = name
	for _, r := range t.Rows {
		if v, ok := r[old]; ok {
			r[name] = v
			delete(r, old)
		}
	}
}

// Records returns the table as a header plus string records, the layout the
// CSV writer expects.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, slices.Clone(t.Columns))
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = r[c].String()
		}
		out = append(out, rec)
	}
	return out
}
