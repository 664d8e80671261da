package export

import "fmt"

// Column describes one exported field.
type Column struct {
	Key   string
	Title string
	// Width is the relative PDF column weight; zero means 1.
	Width float64
}

// Table is the tabular content shared by the CSV and PDF renderers.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (t Table) record(row map[string]string) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row[col.Key]
	}
	return out
}
