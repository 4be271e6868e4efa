package extractor

// Row is one record of a Table keyed by column name. A missing key and a nil
// value are both treated as "no data" for that cell.
type Row map[string]any

// Table is a provider result laid out as rows of named columns. A nil *Table
// means the provider returned nothing for the request.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row whose values line up with Columns. Extra values are
// dropped; missing trailing values stay absent.
func (t *Table) AddRow(values ...any) *Table {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if i >= len(values) {
			break
		}
		row[col] = values[i]
	}
	t.Rows = append(t.Rows, row)
	return t
}

// Empty reports whether the table is absent or carries no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Len returns the number of rows; zero for an absent table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	if t == nil || name == "" {
		return false
	}
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}
