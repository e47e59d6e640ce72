package filters

import (
	"errors"
	"fmt"
	"math"

	"fodash/internal/dataset"
)

// ErrColumnNotFound reports a numeric filter referencing a column the
// dataset does not have
var ErrColumnNotFound = errors.New("numeric filter column not found")

// SignMode restricts a numeric field to positive, negative, or all values
type SignMode string

const (
	SignAll      SignMode = "all"
	SignPositive SignMode = "positive"
	SignNegative SignMode = "negative"
)

// Valid reports whether the sign mode is one of the known values
func (s SignMode) Valid() bool {
	switch s {
	case SignAll, SignPositive, SignNegative:
		return true
	}
	return false
}

// FieldFilter is the per-field numeric filter request: a sign mode plus
// an optional [Lo, Hi] sub-range of the offered slider bounds
type FieldFilter struct {
	Field string
	Sign  SignMode
	Lo    *float64
	Hi    *float64
}

// FieldRange is the outcome of the range engine for one field: the
// min/max bounds offered to the range control, computed over the working
// set, and the effective [Lo, Hi] range to filter by. HasRange is false
// when the working set held no finite value for the field, in which case
// the field contributes no range predicate.
type FieldRange struct {
	Field    string   `json:"field"`
	Sign     SignMode `json:"sign"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Lo       float64  `json:"lo"`
	Hi       float64  `json:"hi"`
	HasRange bool     `json:"has_range"`
}

// ApplySignFilters runs the cumulative sign-filtering pass over the
// frame, in the caller's field order. Each field is coerced to numeric
// dataset-wide, then its sign filter narrows the working set before the
// field's min/max bounds are computed; later fields therefore see the
// narrowed set left by earlier ones. This sequencing is order-dependent
// for the intermediate bounds, though not for the final row set, and is
// kept deliberately.
func ApplySignFilters(frame *dataset.Frame, fieldFilters []FieldFilter) (*dataset.Frame, []FieldRange, error) {
	working := frame
	ranges := make([]FieldRange, 0, len(fieldFilters))

	for _, ff := range fieldFilters {
		if !working.HasColumn(ff.Field) {
			return nil, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, ff.Field)
		}
		if !ff.Sign.Valid() {
			return nil, nil, fmt.Errorf("invalid sign mode %q for field %q", ff.Sign, ff.Field)
		}

		working.CoerceNumeric(ff.Field)

		switch ff.Sign {
		case SignPositive:
			working = working.Filter(func(r *dataset.Record) bool {
				v, ok := r.Num(ff.Field)
				return ok && v > 0
			})
		case SignNegative:
			working = working.Filter(func(r *dataset.Record) bool {
				v, ok := r.Num(ff.Field)
				return ok && v < 0
			})
		}

		fr := FieldRange{Field: ff.Field, Sign: ff.Sign}
		min, max, ok := columnBounds(working, ff.Field)
		if ok {
			fr.Min = min
			fr.Max = max
			fr.Lo = min
			fr.Hi = max
			fr.HasRange = true

			// User-chosen sub-range, clamped to the offered bounds
			if ff.Lo != nil && *ff.Lo > fr.Lo {
				fr.Lo = *ff.Lo
			}
			if ff.Hi != nil && *ff.Hi < fr.Hi {
				fr.Hi = *ff.Hi
			}
			if fr.Lo > fr.Hi {
				fr.Lo, fr.Hi = fr.Hi, fr.Lo
			}
		}
		ranges = append(ranges, fr)
	}

	return working, ranges, nil
}

// columnBounds computes the min and max of the non-missing values of a
// column within the frame. ok is false when no finite value exists.
func columnBounds(frame *dataset.Frame, column string) (min, max float64, ok bool) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, r := range frame.Records() {
		v, present := r.Num(column)
		if !present {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		ok = true
	}
	if !ok || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, 0, false
	}
	return min, max, true
}
