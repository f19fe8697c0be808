package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firerisk/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("ParcelNumber,UseCode,YearBuilt\n1,R1,1980\n2,,\n3,\"A, B\",2001\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ParcelNumber", "UseCode", "YearBuilt"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())

	n, ok := tbl.Get(0, "ParcelNumber").Num()
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)
	assert.Equal(t, types.String, tbl.Get(0, "UseCode").Kind())
	assert.True(t, tbl.Get(1, "UseCode").IsNull())
	assert.True(t, tbl.Get(1, "YearBuilt").IsNull())
	assert.Equal(t, "A, B", tbl.Get(2, "UseCode").String())
}

func TestReadCSV_StripsBOM(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeffparcelnumber,zoning\n1,A\n"))
	require.NoError(t, err)
	assert.Equal(t, "parcelnumber", tbl.Columns[0])
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("parcelnumber,zoning\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"parcelnumber", "zoning"}, tbl.Columns)
	assert.Equal(t, 0, tbl.Len())
}

func TestReadCSV_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"ragged row", "a,b\n1,2,3\n"},
		{"bare quote", "a,b\n1,\"2\n"},
		{"duplicate header", "a,a\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.content))
			assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
		})
	}
}

func TestLoad_CSVFile(t *testing.T) {
	path := writeFile(t, "parcel_area.csv", "parcelnumber,zoning\n1,A\n")

	tbl, err := New().Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, "A", tbl.Get(0, "zoning").String())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_MalformedFileNamesPath(t *testing.T) {
	path := writeFile(t, "bad.csv", "a,b\n1\n")

	_, err := New().Load(context.Background(), path, nil)
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.Contains(t, err.Error(), "bad.csv")
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Load(ctx, "unused.csv", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
