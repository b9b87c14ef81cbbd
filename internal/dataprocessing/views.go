package dataprocessing

import (
	"pickstats/internal/recordset"
	"pickstats/internal/roles"
)

// views provides the micrograph-oriented accessors shared by the tabular
// and STAR parsers.
type views struct {
	table      *recordset.Table
	micrograph string
}

func newViews(table *recordset.Table, preferred string) views {
	v := views{table: table}
	if preferred == "" {
		preferred = roles.DefaultMicrographColumn
	}
	if table != nil {
		v.micrograph, _ = roles.Micrograph(table.Names(), preferred)
	}
	return v
}

// MicrographColumn returns the resolved identifier column, empty when none
func (v views) MicrographColumn() string {
	return v.micrograph
}

// Micrographs returns the distinct identifier values in first-appearance order
func (v views) Micrographs() []string {
	col := v.column()
	if col == nil {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := []string{}
	for i := 0; i < col.Len(); i++ {
		name := col.Format(i)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// CountsPerMicrograph returns the number of rows per identifier value
func (v views) CountsPerMicrograph() map[string]int {
	counts := make(map[string]int)
	col := v.column()
	if col == nil {
		return counts
	}
	for i := 0; i < col.Len(); i++ {
		counts[col.Format(i)]++
	}
	return counts
}

func (v views) column() *recordset.Column {
	if v.table == nil || v.micrograph == "" {
		return nil
	}
	return v.table.Column(v.micrograph)
}
