package filters

import (
	"fodash/internal/dataset"
)

// FilterSet is the full predicate applied to the working set: symbol
// membership, one date window, and the per-field numeric ranges produced
// by the range engine. The three predicate families AND together.
type FilterSet struct {
	Symbols    []string
	AllSymbols bool
	Window     DateWindow
	Ranges     []FieldRange
}

// Apply filters the frame by the composed predicate. It expects the
// frame to be the working set left by ApplySignFilters, so the result
// reflects both the cumulative sign filtering and the range, date, and
// symbol predicates. An empty result is a valid state.
func Apply(frame *dataset.Frame, set FilterSet) *dataset.Frame {
	filtered := frame

	// Symbol membership. Rows without a symbol never match, even when
	// every symbol is selected.
	if set.AllSymbols {
		filtered = filtered.Filter(func(r *dataset.Record) bool {
			return r.Symbol != ""
		})
	} else {
		selected := make(map[string]struct{}, len(set.Symbols))
		for _, s := range set.Symbols {
			selected[s] = struct{}{}
		}
		filtered = filtered.Filter(func(r *dataset.Record) bool {
			_, ok := selected[r.Symbol]
			return ok
		})
	}

	// Date window
	filtered = filtered.Filter(func(r *dataset.Record) bool {
		return set.Window.Contains(r.Date)
	})

	// Numeric ranges; fields without an offered range contribute nothing
	for _, fr := range set.Ranges {
		if !fr.HasRange {
			continue
		}
		lo, hi, field := fr.Lo, fr.Hi, fr.Field
		filtered = filtered.Filter(func(r *dataset.Record) bool {
			v, ok := r.Num(field)
			return ok && v >= lo && v <= hi
		})
	}

	return filtered
}
