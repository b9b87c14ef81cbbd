package recordset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the value type carried by a column. It is decided once, when the
// column is built, and never re-inferred afterwards.
type Kind int

const (
	// Text columns hold the raw cell strings
	Text Kind = iota
	// Numeric columns hold float64 values
	Numeric
)

// String returns the kind name used in reports
func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// Column is a named, typed sequence of values. Exactly one of Floats or
// Strings is populated depending on Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// NewNumericColumn creates a numeric column
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values}
}

// NewTextColumn creates a text column
func NewTextColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: Text, Strings: values}
}

// Len returns the number of values in the column
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Numeric reports whether the column holds numbers
func (c *Column) Numeric() bool {
	return c.Kind == Numeric
}

// Value returns the native value of row i: float64 for numeric columns,
// string for text columns.
func (c *Column) Value(i int) any {
	if c.Kind == Numeric {
		return c.Floats[i]
	}
	return c.Strings[i]
}

// Format returns row i as text. Numbers use the shortest representation that
// parses back to the same float64.
func (c *Column) Format(i int) string {
	if c.Kind == Numeric {
		return FormatFloat(c.Floats[i])
	}
	return c.Strings[i]
}

// FormatFloat renders a float in its shortest round-trip form
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Column) subset(indices []int) *Column {
	if c.Kind == Numeric {
		out := make([]float64, len(indices))
		for i, idx := range indices {
			out[i] = c.Floats[idx]
		}
		return NewNumericColumn(c.Name, out)
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = c.Strings[idx]
	}
	return NewTextColumn(c.Name, out)
}

// Table is the record set shared by every parser and the statistics engine:
// an ordered list of equally long columns. A Table is not modified after it
// has been built; derived views are new tables.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from columns. All columns must have the same length and
// distinct names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
		}
		t.index[col.Name] = i
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Empty returns the canonical empty record set: no columns and no rows
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// FromRows builds a table from string cells. Every row must have exactly
// len(names) cells. Each column is typed independently: it becomes numeric
// when every non-blank cell parses as a number and at least one cell is
// non-blank, otherwise it keeps its text values. Blank cells in a numeric
// column are missing values and hold NaN.
func FromRows(names []string, rows [][]string) (*Table, error) {
	columns := make([]*Column, len(names))
	for j, name := range names {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if len(row) != len(names) {
				return nil, fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(names))
			}
			cells[i] = row[j]
		}
		columns[j] = inferColumn(name, cells)
	}
	return New(columns...)
}

func inferColumn(name string, cells []string) *Column {
	values := make([]float64, len(cells))
	parsed := 0
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return NewTextColumn(name, cells)
		}
		values[i] = v
		parsed++
	}
	if parsed == 0 {
		return NewTextColumn(name, cells)
	}
	return NewNumericColumn(name, values)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.columns)
}

// IsEmpty reports whether the table has no rows
func (t *Table) IsEmpty() bool {
	return t == nil || t.rows == 0
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// NumericNames returns the names of numeric columns accepted by keep, in
// column order.
func (t *Table) NumericNames(keep func(name string) bool) []string {
	var names []string
	for _, c := range t.columns {
		if c.Numeric() && keep(c.Name) {
			names = append(names, c.Name)
		}
	}
	return names
}

// HasColumn reports whether a column with the exact name exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column or nil
func (t *Table) Column(name string) *Column {
	if i, ok := t.index[name]; ok {
		return t.columns[i]
	}
	return nil
}

// ColumnAt returns the column at position i
func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

// Row returns the native values of row i in column order
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Value(i)
	}
	return out
}

// Rows walks the rows in order, passing each as formatted cells. Iteration
// stops when fn returns false. The cells slice is reused between calls.
func (t *Table) Rows(fn func(i int, cells []string) bool) {
	cells := make([]string, len(t.columns))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.columns {
			cells[j] = c.Format(i)
		}
		if !fn(i, cells) {
			return
		}
	}
}

// Records returns all rows as formatted cells
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.rows)
	t.Rows(func(_ int, cells []string) bool {
		out = append(out, append([]string(nil), cells...))
		return true
	})
	return out
}

// Subset returns a new table holding the rows at the given indices, in the
// order given.
func (t *Table) Subset(indices []int) (*Table, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= t.rows {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", idx, t.rows)
		}
	}
	columns := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		columns[j] = c.subset(indices)
	}
	return New(columns...)
}
