package loader

import (
	"fmt"
	"strings"

	"firerisk/internal/types"

	shp "github.com/jonas-p/go-shp"
)

// dbfNameLimit is the longest field name a DBF header can hold.
const dbfNameLimit = 10

// readShapefile loads the attribute table behind a shapefile, one row per
// shape. Geometry is not kept.
func readShapefile(path string, columns []string) (*types.Table, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no attribute fields", ErrMalformedInput, path)
	}
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = expandFieldName(f.String(), columns)
	}

	cells := make([][]string, len(fields))
	for r.Next() {
		idx, _ := r.Shape()
		for i := range fields {
			// unwritten DBF bytes are NUL, not space padding
			cells[i] = append(cells[i], strings.Trim(r.ReadAttribute(idx, i), "\x00 "))
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: read shapefile %s: %w", ErrMalformedInput, path, err)
	}
	return build(header, cells)
}

// expandFieldName maps a DBF field name cut at the 10 character limit back to
// the one allow-listed column it is a prefix of. Names that are not truncated,
// or that match zero or several columns, are returned unchanged.
func expandFieldName(name string, columns []string) string {
	if len(name) != dbfNameLimit {
		return name
	}
	lower := strings.ToLower(name)
	match := ""
	for _, c := range columns {
		c = strings.ToLower(c)
		if c == lower {
			return name
		}
		if strings.HasPrefix(c, lower) {
			if match != "" {
				return name
			}
			match = c
		}
	}
	if match == "" {
		return name
	}
	return match
}
