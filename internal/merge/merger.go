// Package merge folds projected source tables into one parcel table and
// collapses attributes that more than one source reports.
package merge

import (
	"errors"
	"fmt"

	"firerisk/internal/types"
)

var (
	// ErrMissingKey means a table taking part in a join has no key column.
	ErrMissingKey = errors.New("missing key column")

	// ErrColumnCollision means both sides of a join carry the same non-key column.
	ErrColumnCollision = errors.New("column collision")
)

// Merge left-joins incoming into acc on key and drops rows whose key was
// already emitted.
//
// An accumulator without rows is the seed state: incoming is returned as is.
// Keys only present in incoming never reach the result; the first table
// merged defines the universe of parcels.
func Merge(key string, acc, incoming *types.Table) (*types.Table, error) {
	if acc.Len() == 0 {
		return incoming, nil
	}
	if !acc.HasColumn(key) {
		return nil, fmt.Errorf("%w %q in accumulated table", ErrMissingKey, key)
	}
	if !incoming.HasColumn(key) {
		return nil, fmt.Errorf("%w %q in incoming table", ErrMissingKey, key)
	}

	var added []string
	for _, col := range incoming.Columns {
		if col == key {
			continue
		}
		if acc.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrColumnCollision, col)
		}
		added = append(added, col)
	}

	// First incoming row per key; later duplicates would only produce rows
	// that the dedup below drops.
	index := make(map[string]types.Row, len(incoming.Rows))
	for _, r := range incoming.Rows {
		k := keyOf(r[key])
		if _, ok := index[k]; !ok {
			index[k] = r
		}
	}

	out := types.NewTable(append(append([]string(nil), acc.Columns...), added...)...)
	emitted := make(map[string]struct{}, len(acc.Rows))
	for _, r := range acc.Rows {
		k := keyOf(r[key])
		if _, dup := emitted[k]; dup {
			continue
		}
		emitted[k] = struct{}{}

		row := make(types.Row, len(out.Columns))
		for _, col := range acc.Columns {
			row[col] = r[col]
		}
		match := index[k]
		for _, col := range added {
			row[col] = match[col]
		}
		out.Append(row)
	}
	return out, nil
}

// keyOf gives every key cell one textual form: integers exactly, floats in
// shortest form, so 1 and 1.0 join. Null keys only match each other.
func keyOf(v types.Value) string {
	if v.IsNull() {
		return "\x00"
	}
	return v.String()
}
