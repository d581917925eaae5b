package normalize

// Tabular shaping

// Table is a flat tabular dataset: an ordered column set and rows mapping
// column name to a string-serialized value.
//
// Invariants:
//   - columns is the union of keys observed across rows, in first-seen order
//   - every row's key set is a subset of columns
//   - rows never contain nested structures after normalization
type Table struct {
	columns  []string
	colIndex map[string]struct{}
	rows     []map[string]string
}

func NewTable() Table {
	return Table{
		colIndex: make(map[string]struct{}),
	}
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string {
	columns := make([]string, len(t.columns))
	copy(columns, t.columns)
	return columns
}

func (t *Table) Rows() []map[string]string {
	return t.rows
}

func (t *Table) RowCount() int {
	return len(t.rows)
}

func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// AddRow appends a row, registering any unseen keys as new columns in the
// order the row yields them via orderedKeys.
func (t *Table) AddRow(row map[string]string, orderedKeys []string) {
	for _, key := range orderedKeys {
		if _, seen := t.colIndex[key]; !seen {
			t.colIndex[key] = struct{}{}
			t.columns = append(t.columns, key)
		}
	}
	t.rows = append(t.rows, row)
}
