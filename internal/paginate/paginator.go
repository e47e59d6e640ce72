// Package paginate slices a filtered dataset into fixed-size pages for
// display.
package paginate

import (
	"fodash/internal/dataset"
)

// DefaultPageSize is the number of rows shown per page
const DefaultPageSize = 10

// Page is one bounded, contiguous slice of a filtered frame
type Page struct {
	Frame     *dataset.Frame
	Number    int
	PageCount int
	TotalRows int
	PageSize  int
}

// PageCount computes the number of selectable pages for a row count.
// The count is total/size + 1 using integer division, so for exact
// multiples the last selectable page is empty. Callers depend on this
// bound; do not change it to a ceiling division.
func PageCount(totalRows, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return totalRows/pageSize + 1
}

// Paginate returns the 1-based page of the frame. When the frame fits
// in a single page, pagination is bypassed and the whole frame is
// returned as page one. Out-of-bounds slices clamp to the frame, so the
// trailing empty page yields zero rows rather than an error.
func Paginate(frame *dataset.Frame, pageSize, number int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if number < 1 {
		number = 1
	}

	total := frame.Len()

	if total <= pageSize {
		return Page{
			Frame:     frame,
			Number:    1,
			PageCount: 1,
			TotalRows: total,
			PageSize:  pageSize,
		}
	}

	count := PageCount(total, pageSize)
	if number > count {
		number = count
	}

	start := (number - 1) * pageSize
	end := start + pageSize

	return Page{
		Frame:     frame.Slice(start, end),
		Number:    number,
		PageCount: count,
		TotalRows: total,
		PageSize:  pageSize,
	}
}
