package filters

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how the date window is derived from the dataset's latest
// trade date
type Mode string

const (
	ModeLatest    Mode = "latest"
	ModeYesterday Mode = "yesterday"
	ModeLastWeek  Mode = "last_week"
	ModeLastMonth Mode = "last_month"
	ModeCustom    Mode = "custom"
)

var (
	ErrUnknownMode   = errors.New("unknown date filter mode")
	ErrInvertedRange = errors.New("invalid custom range: start date after end date")
)

// DateWindow is an inclusive [Start, End] calendar range, Start <= End
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, inclusive on both ends
func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow derives the date window for a mode. Preset modes are pure
// functions of the latest trade date; custom ranges are clamped to the
// dataset's [min, max] span and rejected when inverted.
func ResolveWindow(mode Mode, latest, min, max time.Time, customStart, customEnd time.Time) (DateWindow, error) {
	switch mode {
	case ModeLatest:
		return DateWindow{Start: latest, End: latest}, nil
	case ModeYesterday:
		return DateWindow{Start: latest.AddDate(0, 0, -1), End: latest}, nil
	case ModeLastWeek:
		return DateWindow{Start: latest.AddDate(0, 0, -7), End: latest}, nil
	case ModeLastMonth:
		return DateWindow{Start: latest.AddDate(0, 0, -30), End: latest}, nil
	case ModeCustom:
		if customStart.After(customEnd) {
			return DateWindow{}, ErrInvertedRange
		}
		start := customStart
		end := customEnd
		if start.Before(min) {
			start = min
		}
		if end.After(max) {
			end = max
		}
		return DateWindow{Start: start, End: end}, nil
	default:
		return DateWindow{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
