// Package loader reads source extracts into tables. CSV files carry their
// column names in a header row; shapefiles carry them in the DBF attribute table.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"firerisk/internal/types"
)

// ErrMalformedInput means a file could not be parsed as a table.
var ErrMalformedInput = errors.New("malformed input")

const utf8BOM = "\ufeff"

// Loader picks a reader by file extension.
type Loader struct{}

// New returns a Loader.
func New() *Loader {
	return &Loader{}
}

// Load reads path into a table. Files ending in .shp are read through their
// attribute table, using columns to recover truncated field names; anything
// else is parsed as CSV.
func (l *Loader) Load(ctx context.Context, path string, columns []string) (*types.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return readShapefile(path, columns)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header row followed by records of the same width.
func ReadCSV(r io.Reader) (*types.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	cells := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		for j := range header {
			cells[j] = append(cells[j], rec[j])
		}
	}
	return build(header, cells)
}

// build turns columnar raw cells into a typed table.
func build(header []string, cells [][]string) (*types.Table, error) {
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedInput, h)
		}
		seen[h] = struct{}{}
	}

	t := types.NewTable(header...)
	if len(header) == 0 || len(cells[0]) == 0 {
		return t, nil
	}

	typed := make([][]types.Value, len(header))
	for j := range header {
		typed[j] = types.TypeColumn(cells[j])
	}
	n := len(cells[0])
	t.Rows = make([]types.Row, n)
	for i := 0; i < n; i++ {
		row := make(types.Row, len(header))
		for j, h := range header {
			row[h] = typed[j][i]
		}
		t.Rows[i] = row
	}
	return t, nil
}
