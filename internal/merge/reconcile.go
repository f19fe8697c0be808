package merge

import (
	"fmt"

	"firerisk/internal/catalog"
	"firerisk/internal/types"
)

// Rule collapses one shared attribute. For each row the Primary cell is kept
// unless UseFallback reports it unusable, in which case the Fallback cell is
// taken instead.
type Rule struct {
	Attribute   string
	Primary     string
	Fallback    string
	UseFallback func(primary types.Value) bool
}

// Choose returns the cell kept for one row.
func (r Rule) Choose(primary, fallback types.Value) types.Value {
	if r.UseFallback(primary) {
		return fallback
	}
	return primary
}

// Missing is true for cells with no numeric reading (null, NaN, text).
func Missing(v types.Value) bool { return v.IsNaN() }

// Blank is true for the empty string and for null.
func Blank(v types.Value) bool {
	if v.IsNull() {
		return true
	}
	s, ok := v.Str()
	return ok && s == ""
}

// DefaultRules lists the attributes reported by both the residential and the
// commercial extracts. Residential wins unless its cell is unusable.
func DefaultRules() []Rule {
	return []Rule{
		{
			Attribute:   "usecode",
			Primary:     catalog.Prefixed(catalog.Residential, "usecode"),
			Fallback:    catalog.Prefixed(catalog.Commercial, "usecode"),
			UseFallback: Blank,
		},
		{
			Attribute:   "yearbuilt",
			Primary:     catalog.Prefixed(catalog.Residential, "yearbuilt"),
			Fallback:    catalog.Prefixed(catalog.Commercial, "yearbuilt"),
			UseFallback: Missing,
		},
	}
}

// Reconciler applies a fixed list of rules in order. There is no fallback
// rule: an attribute without an entry is left untouched.
type Reconciler struct {
	rules []Rule
}

// NewReconciler returns a reconciler for rules, applied in the given order.
func NewReconciler(rules ...Rule) *Reconciler {
	return &Reconciler{rules: rules}
}

// Reconcile replaces each rule's two source columns with one column named
// after the attribute, inserted first. A rule whose columns are both absent is
// skipped; a single absent column reads as null. t is modified in place.
func (r *Reconciler) Reconcile(t *types.Table) (*types.Table, error) {
	for _, rule := range r.rules {
		if !t.HasColumn(rule.Primary) && !t.HasColumn(rule.Fallback) {
			continue
		}
		if t.HasColumn(rule.Attribute) {
			return nil, fmt.Errorf("%w: %q already present", ErrColumnCollision, rule.Attribute)
		}
		values := make([]types.Value, len(t.Rows))
		for i, row := range t.Rows {
			values[i] = rule.Choose(row[rule.Primary], row[rule.Fallback])
		}
		t.DropColumns(rule.Primary, rule.Fallback)
		t.InsertColumn(0, rule.Attribute, values)
	}
	return t, nil
}
