// Package sink writes the merged parcel table to its destinations: a CSV file
// and a relational table that is replaced on every run. Neither carries a row
// index column; the first column is the first column of the table.
package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"firerisk/internal/types"

	"go.uber.org/zap"
)

// ErrStore marks a failure of the relational store. The CSV file has already
// been written when it is returned.
var ErrStore = errors.New("store write failed")

// DefaultTable is the relational table replaced on each run.
const DefaultTable = "parcels"

// Store replaces a named table with the contents of t.
type Store interface {
	ReplaceTable(ctx context.Context, name string, t *types.Table) error
	Close() error
}

// OpenFunc connects to the store. It is called only after the CSV is on disk.
type OpenFunc func(ctx context.Context) (Store, error)

// Sink writes a finished table.
type Sink struct {
	OutPath string
	Table   string
	Open    OpenFunc // nil skips the store
	Logger  *zap.Logger
}

// Write saves t to OutPath, then replaces Table in the store.
func (s *Sink) Write(ctx context.Context, t *types.Table) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := WriteCSVFile(s.OutPath, t); err != nil {
		return err
	}
	logger.Info("wrote csv", zap.String("path", s.OutPath), zap.Int("rows", t.Len()))

	if s.Open == nil {
		logger.Info("store skipped")
		return nil
	}
	name := s.Table
	if name == "" {
		name = DefaultTable
	}

	start := time.Now()
	store, err := s.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	defer store.Close()

	logger.Debug("dropping previous table", zap.String("table", name))
	if err := store.ReplaceTable(ctx, name, t); err != nil {
		return fmt.Errorf("%w: replace table %s: %w", ErrStore, name, err)
	}
	logger.Info("loaded table",
		zap.String("table", name),
		zap.Int("rows", t.Len()),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return nil
}

// WriteCSVFile writes t to path, replacing any existing file.
func WriteCSVFile(path string, t *types.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes the header and every row of t, with no leading index
// column. Null cells are empty and integers are written exactly.
func WriteCSV(w io.Writer, t *types.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return err
	}
	return cw.Error()
}
