// Package catalog holds the per-source column allow-lists and the rules for
// naming retained columns in the merged parcel table.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"firerisk/internal/types"

	"gopkg.in/yaml.v3"
)

// Key is the column every source is joined on.
const Key = "parcelnumber"

// Source identifiers accepted by the default catalog.
const (
	ParcelArea  = "parcel_area"
	Commercial  = "real_estate_commercial"
	Residential = "real_estate_residential"
	Base        = "real_estate_base"
)

var (
	// ErrUnknownSource is returned by Lookup for a name the catalog does not list.
	ErrUnknownSource = errors.New("unknown source")

	// ErrDuplicateColumn means two input columns map to the same canonical name.
	ErrDuplicateColumn = errors.New("duplicate column after normalization")
)

// Source is one named input table and the columns kept from it.
type Source struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// Catalog is the immutable set of sources plus the join key. Build one with New,
// Default or Load; the zero value rejects everything.
type Catalog struct {
	key     string
	order   []string
	sources map[string]map[string]struct{}
}

// New builds a catalog. Column names are stored lower-cased.
func New(key string, sources ...Source) *Catalog {
	c := &Catalog{
		key:     strings.ToLower(key),
		sources: make(map[string]map[string]struct{}, len(sources)),
	}
	for _, s := range sources {
		set := make(map[string]struct{}, len(s.Columns))
		for _, col := range s.Columns {
			set[strings.ToLower(col)] = struct{}{}
		}
		if _, ok := c.sources[s.Name]; !ok {
			c.order = append(c.order, s.Name)
		}
		c.sources[s.Name] = set
	}
	return c
}

// Default returns the catalog for the four city extracts.
func Default() *Catalog {
	return New(Key,
		Source{Name: ParcelArea, Columns: []string{
			"objectid", "assessment", "geoparcelidentificationnumber",
			"legaldescription", "lotsquarefeet", "parcelnumber", "zoning",
			"esr_oid",
		}},
		Source{Name: Commercial, Columns: []string{
			"recordid_int", "parcelnumber", "usecode", "yearbuilt",
			"grossarea", "storyheight", "numberofstories",
		}},
		Source{Name: Residential, Columns: []string{
			"recordid_int", "parcelnumber", "usecode", "style", "grade", "roof",
			"flooring", "heating", "fireplace", "yearbuilt", "totalrooms",
			"bedrooms", "halfbathrooms", "fullbathrooms", "basementgarage",
			"basement", "finishedbasement", "basementtype", "externalwalls",
			"numberofstories", "squarefootagefinishedliving",
		}},
		Source{Name: Base, Columns: []string{
			"recordid_int", "parcelnumber", "streetnumber", "streetname", "unit",
			"statecode", "zone", "acerage",
		}},
	)
}

type fileCatalog struct {
	Key     string   `yaml:"key"`
	Sources []Source `yaml:"sources"`
}

// Load reads a YAML catalog:
//
//	key: parcelnumber
//	sources:
//	  - name: parcel_area
//	    columns: [parcelnumber, zoning]
//
// An omitted key defaults to Key.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(fc.Sources) == 0 {
		return nil, fmt.Errorf("catalog %s lists no sources", path)
	}
	if fc.Key == "" {
		fc.Key = Key
	}
	return New(fc.Key, fc.Sources...), nil
}

// Key returns the join column name.
func (c *Catalog) Key() string { return c.key }

// Names lists the known sources in declaration order.
func (c *Catalog) Names() []string { return slices.Clone(c.order) }

// Lookup returns the source's allow-list, sorted, or ErrUnknownSource.
func (c *Catalog) Lookup(name string) (Source, error) {
	set, ok := c.sources[name]
	if !ok {
		return Source{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownSource, name, strings.Join(c.order, ", "))
	}
	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return Source{Name: name, Columns: cols}, nil
}

// IsWanted reports whether column is kept for source. Matching ignores case.
// Every column of an unknown source is rejected without error.
func (c *Catalog) IsWanted(source, column string) bool {
	set, ok := c.sources[source]
	if !ok {
		return false
	}
	_, ok = set[strings.ToLower(column)]
	return ok
}

// Normalize returns the canonical name of a retained column: the join key
// stays bare, everything else becomes "<source>-<column>" in lower case.
func (c *Catalog) Normalize(source, column string) string {
	column = strings.ToLower(column)
	if column == c.key {
		return column
	}
	return Prefixed(source, column)
}

// Prefixed joins a source and column the way Normalize does for non-key columns.
func Prefixed(source, column string) string {
	return source + "-" + column
}

// Project drops every column of t that source does not want and renames the
// rest to their canonical names. t is modified in place and returned.
func (c *Catalog) Project(source string, t *types.Table) (*types.Table, error) {
	var drop []string
	seen := make(map[string]string, len(t.Columns))
	renames := make([][2]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if !c.IsWanted(source, col) {
			drop = append(drop, col)
			continue
		}
		name := c.Normalize(source, col)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q and %q both become %q", ErrDuplicateColumn, prev, col, name)
		}
		seen[name] = col
		renames = append(renames, [2]string{col, name})
	}

	t.DropColumns(drop...)
	for _, r := range renames {
		t.RenameColumn(r[0], r[1])
	}
	return t, nil
}
