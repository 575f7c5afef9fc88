package viewer

import (
	"time"

	"github.com/klokku/notebook/pkg/calendar"
)

// PageSize is the number of note pages shown side by side.
const PageSize = 2

// NotFound is returned by LocatePage when no record carries the target date.
const NotFound = -1

// Dated is anything carrying one or more dates, in their stored order.
type Dated interface {
	Dates() []time.Time
}

// PageOf returns the 1-based page of the record at flat index i.
func PageOf(i int) int {
	return i/PageSize + 1
}

// TotalPages returns how many pages n records span.
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// PageBounds returns the half-open index range [from, to) of the records shown on page.
func PageBounds(page, n int) (int, int) {
	from := (page - 1) * PageSize
	to := from + PageSize
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return from, to
}

// LocatePage returns the page of the first record, in list order, that has a date on the same
// day as target, or NotFound. Days are compared in loc.
func LocatePage[R Dated](records []R, target time.Time, loc *time.Location) int {
	for i, record := range records {
		for _, d := range record.Dates() {
			if d.IsZero() {
				continue
			}
			if calendar.SameDay(d, target, loc) {
				return PageOf(i)
			}
		}
	}
	return NotFound
}

// Navigate moves the cursor to the page holding target. The cursor is left unchanged when
// nothing matches.
func Navigate[R Dated](current int, records []R, target time.Time, loc *time.Location) (int, bool) {
	page := LocatePage(records, target, loc)
	if page == NotFound {
		return current, false
	}
	return page, true
}
