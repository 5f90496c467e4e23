package formats

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoTables is returned when a database source holds no user tables.
var ErrNoTables = fmt.Errorf("no tables found")

// quoteIdentifier quotes a table name for use in a SELECT statement.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// cellString renders a database value as a cell. NULL becomes "".
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(t).String()
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return fmt.Sprint(t)
		}
		return cellString(dv)
	default:
		return fmt.Sprint(t)
	}
}

// sqlRows adapts *sql.Rows to the row stream of a source.
type sqlRows struct {
	rows    *sql.Rows
	columns []string
	n       int
}

func newSQLRows(rows *sql.Rows) (*sqlRows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return &sqlRows{rows: rows, columns: cols}, nil
}

func (r *sqlRows) next() (int, []string, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return 0, nil, fmt.Errorf("read source row %d: %w", r.n+1, err)
		}
		return 0, nil, io.EOF
	}
	r.n++

	values := make([]any, len(r.columns))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return 0, nil, fmt.Errorf("read source row %d: %w", r.n, err)
	}

	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cellString(v)
	}
	return r.n, cells, nil
}
