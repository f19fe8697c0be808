package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firerisk/internal/catalog"
	"firerisk/internal/types"

	"go.uber.org/zap"
)

// ErrNoInputs is returned when Run is given nothing to merge.
var ErrNoInputs = errors.New("no inputs")

// Input names one source file.
type Input struct {
	Source string
	Path   string
}

// Loader reads one file into a table. columns is the source's allow-list,
// which loaders for formats with truncated field names use to recover the
// full names.
type Loader interface {
	Load(ctx context.Context, path string, columns []string) (*types.Table, error)
}

// Pipeline runs one merge: load, project and fold every input, then reconcile.
type Pipeline struct {
	catalog    *catalog.Catalog
	loader     Loader
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewPipeline wires the collaborators of a run. A nil logger discards output.
func NewPipeline(c *catalog.Catalog, l Loader, r *Reconciler, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{catalog: c, loader: l, reconciler: r, logger: logger}
}

// Run merges inputs in order and returns the reconciled table.
// Every source name is checked before any file is read.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) (*types.Table, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	sources := make([]catalog.Source, len(inputs))
	for i, in := range inputs {
		src, err := p.catalog.Lookup(in.Source)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i+1, in.Path, err)
		}
		sources[i] = src
	}

	merged := types.NewTable()
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := p.mergeIn(ctx, in, sources[i].Columns, merged)
		if err != nil {
			return nil, fmt.Errorf("merge %s (%s): %w", in.Source, in.Path, err)
		}
		merged = next
	}

	out, err := p.reconciler.Reconcile(merged)
	if err != nil {
		return nil, fmt.Errorf("reconcile shared attributes: %w", err)
	}
	p.logger.Info("merge complete",
		zap.Int("rows", out.Len()),
		zap.Int("columns", len(out.Columns)))
	return out, nil
}

func (p *Pipeline) mergeIn(ctx context.Context, in Input, columns []string, merged *types.Table) (*types.Table, error) {
	start := time.Now()
	p.logger.Info("reading source", zap.String("source", in.Source), zap.String("path", in.Path))

	tbl, err := p.loader.Load(ctx, in.Path, columns)
	if err != nil {
		return nil, err
	}
	tbl, err = p.catalog.Project(in.Source, tbl)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("updated columns",
		zap.String("source", in.Source),
		zap.Strings("columns", tbl.Columns))
	if len(tbl.Columns) <= 1 {
		p.logger.Warn("source contributes no attribute columns", zap.String("source", in.Source))
	}

	out, err := Merge(p.catalog.Key(), merged, tbl)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("merged in source",
		zap.String("source", in.Source),
		zap.Int("rows", out.Len()),
		zap.Int("columns", len(out.Columns)),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return out, nil
}
