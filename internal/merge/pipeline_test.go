package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"firerisk/internal/catalog"
	"firerisk/internal/loader"
	"firerisk/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLoader struct {
	tables map[string]*types.Table
	opened []string
}

func (l *recordingLoader) Load(_ context.Context, path string, _ []string) (*types.Table, error) {
	l.opened = append(l.opened, path)
	t, ok := l.tables[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return t, nil
}

func newTestPipeline(l Loader) *Pipeline {
	return NewPipeline(catalog.Default(), l, NewReconciler(DefaultRules()...), nil)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	inputs := []Input{
		{catalog.ParcelArea, writeCSV(t, dir, "area.csv", "ParcelNumber,Zoning,Shape__Length\n1,A,10.5\n")},
		{catalog.Residential, writeCSV(t, dir, "res.csv", "ParcelNumber,UseCode,YearBuilt,Bedrooms\n1,R1,1980,3\n2,R9,1999,4\n")},
		{catalog.Commercial, writeCSV(t, dir, "com.csv", "ParcelNumber,UseCode,YearBuilt\n1,,\n")},
	}

	out, err := newTestPipeline(loader.New()).Run(context.Background(), inputs)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len(), "parcel 2 is not in the seed table")
	assert.Equal(t, "1", out.Get(0, "parcelnumber").String())
	assert.Equal(t, "A", out.Get(0, "parcel_area-zoning").String())
	assert.Equal(t, "R1", out.Get(0, "usecode").String())
	assert.Equal(t, "1980", out.Get(0, "yearbuilt").String())
	assert.Equal(t, []string{
		"yearbuilt", "usecode", "parcelnumber", "parcel_area-zoning", "real_estate_residential-bedrooms",
	}, out.Columns)
}

func TestPipeline_CommercialFillsResidentialGaps(t *testing.T) {
	dir := t.TempDir()
	inputs := []Input{
		{catalog.ParcelArea, writeCSV(t, dir, "area.csv", "parcelnumber,zoning\n1,A\n2,B\n")},
		{catalog.Residential, writeCSV(t, dir, "res.csv", "parcelnumber,usecode,yearbuilt\n1,R1,\n")},
		{catalog.Commercial, writeCSV(t, dir, "com.csv", "parcelnumber,usecode,yearbuilt\n1,C1,1995\n2,C2,2005\n")},
	}

	out, err := newTestPipeline(loader.New()).Run(context.Background(), inputs)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "R1", out.Get(0, "usecode").String())
	assert.Equal(t, "1995", out.Get(0, "yearbuilt").String())
	assert.Equal(t, "C2", out.Get(1, "usecode").String())
	assert.Equal(t, "2005", out.Get(1, "yearbuilt").String())
}

func TestPipeline_LargeParcelNumbersStayDistinct(t *testing.T) {
	dir := t.TempDir()
	inputs := []Input{
		{catalog.ParcelArea, writeCSV(t, dir, "area.csv", "parcelnumber,zoning\n9007199254740992,A\n9007199254740993,B\n")},
		{catalog.Residential, writeCSV(t, dir, "res.csv", "parcelnumber,usecode\n9007199254740993,R1\n")},
	}

	out, err := newTestPipeline(loader.New()).Run(context.Background(), inputs)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "9007199254740992", out.Get(0, "parcelnumber").String())
	assert.Equal(t, "A", out.Get(0, "parcel_area-zoning").String())
	assert.True(t, out.Get(0, "usecode").IsNull())
	assert.Equal(t, "9007199254740993", out.Get(1, "parcelnumber").String())
	assert.Equal(t, "B", out.Get(1, "parcel_area-zoning").String())
	assert.Equal(t, "R1", out.Get(1, "usecode").String())
}

func TestPipeline_UnknownSourceFailsBeforeLoading(t *testing.T) {
	l := &recordingLoader{tables: map[string]*types.Table{}}
	inputs := []Input{
		{catalog.ParcelArea, "area.csv"},
		{"real_estate_comercial", "com.csv"},
	}

	_, err := newTestPipeline(l).Run(context.Background(), inputs)
	assert.True(t, errors.Is(err, catalog.ErrUnknownSource))
	assert.Empty(t, l.opened)
}

func TestPipeline_NoInputs(t *testing.T) {
	_, err := newTestPipeline(&recordingLoader{}).Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoInputs))
}

func TestPipeline_MissingKeyIsFatal(t *testing.T) {
	area := types.NewTable("parcelnumber", "zoning")
	area.Append(types.Row{"parcelnumber": num(1), "zoning": str("A")})
	base := types.NewTable("streetname")
	base.Append(types.Row{"streetname": str("MAIN")})

	l := &recordingLoader{tables: map[string]*types.Table{"area": area, "base": base}}
	_, err := newTestPipeline(l).Run(context.Background(), []Input{
		{catalog.ParcelArea, "area"},
		{catalog.Base, "base"},
	})
	assert.True(t, errors.Is(err, ErrMissingKey))
	assert.Contains(t, err.Error(), catalog.Base)
}

func TestPipeline_LoadErrorStopsRun(t *testing.T) {
	l := &recordingLoader{tables: map[string]*types.Table{}}
	_, err := newTestPipeline(l).Run(context.Background(), []Input{
		{catalog.ParcelArea, "missing"},
		{catalog.Base, "never"},
	})
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, []string{"missing"}, l.opened)
}

func TestPipeline_SingleSourceKeepsSeedRows(t *testing.T) {
	area := types.NewTable("parcelnumber", "zoning")
	area.Append(types.Row{"parcelnumber": num(1), "zoning": str("A")})
	area.Append(types.Row{"parcelnumber": num(1), "zoning": str("B")})

	l := &recordingLoader{tables: map[string]*types.Table{"area": area}}
	out, err := newTestPipeline(l).Run(context.Background(), []Input{{catalog.ParcelArea, "area"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len(), "the seed step is not a join and does not deduplicate")
}

func TestPipeline_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &recordingLoader{tables: map[string]*types.Table{}}
	_, err := newTestPipeline(l).Run(ctx, []Input{{catalog.ParcelArea, "area"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.opened)
}
