// Package csvtable reads header-led scenario tables with canonical column
// names and typed, line-numbered cell access.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

const utf8BOM = "\ufeff"

// Reader walks the data rows of one table. Cell accessors read the current
// row and report failures as *domain.RecordError.
type Reader struct {
	table  domain.TableName
	csv    *csv.Reader
	header []string
	index  map[string]int
	row    []string
	line   int
}

// NewReader consumes the header row, applies domain.LegacyColumnRenames and
// checks the table's required columns.
func NewReader(table domain.TableName, src io.Reader) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.SchemaError{Table: table, Missing: domain.RequiredColumns(table)}
	}
	if err != nil {
		return nil, parseError(table, err)
	}

	r := &Reader{table: table, csv: cr, index: make(map[string]int, len(header))}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if canonical, ok := domain.LegacyColumnRenames[name]; ok {
			name = canonical
		}
		r.header = append(r.header, name)
		if _, dup := r.index[name]; !dup {
			r.index[name] = i
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns(table) {
		if _, ok := r.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Table: table, Missing: missing}
	}
	return r, nil
}

// Columns returns the canonical header in file order.
func (r *Reader) Columns() []string {
	return r.header
}

// Next advances to the next data row. It returns false at end of input.
func (r *Reader) Next() (bool, error) {
	row, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, parseError(r.table, err)
	}
	r.row = row
	r.line, _ = r.csv.FieldPos(0)
	return true, nil
}

// Line is the 1-based source line of the current row.
func (r *Reader) Line() int {
	return r.line
}

// String returns the trimmed text of a column in the current row.
func (r *Reader) String(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

// Quantity parses a non-negative number from a column.
func (r *Reader) Quantity(col string) (float64, error) {
	raw := r.String(col)
	v, err := domain.ParseQuantity(raw)
	if err != nil {
		return 0, r.recordError(col, raw, err)
	}
	return v, nil
}

// FIPS parses and normalises a county code from a column.
func (r *Reader) FIPS(col string) (string, error) {
	raw := r.String(col)
	v, err := domain.NormalizeFIPS(raw)
	if err != nil {
		return "", r.recordError(col, raw, err)
	}
	return v, nil
}

// RequireString returns a column's text, rejecting empty cells.
func (r *Reader) RequireString(col string) (string, error) {
	v := r.String(col)
	if v == "" {
		return "", r.recordError(col, v, errors.New("empty value"))
	}
	return v, nil
}

func (r *Reader) recordError(col, raw string, err error) error {
	return &domain.RecordError{Table: r.table, Line: r.line, Column: col, Value: raw, Err: err}
}

func parseError(table domain.TableName, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.RecordError{Table: table, Line: pe.Line, Err: pe.Err}
	}
	return fmt.Errorf("%w: read %s: %w", domain.ErrDataUnavailable, table, err)
}
