package calendar

import "time"

// MaxWeekColumns is the number of week columns a year grid is laid out in.
const MaxWeekColumns = 53

const daysPerWeek = 7

type Tier int

const (
	TierNone Tier = iota
	TierThree
	TierFour
	TierMany
)

// EventDate is a single dated tag of a note page. A page tagged with several projects
// contributes one EventDate per tag.
type EventDate struct {
	Date time.Time
}

type Cell struct {
	Offset     int
	Date       time.Time
	EventCount int
	Tier       Tier
	// Opacity is only meaningful for TierNone, it is 1 for every other tier.
	Opacity float64
}

type MonthLabel struct {
	Month      time.Month
	WeekColumn int
}

// Grid is the heat-map of a single year. Cells are ordered by offset from GridStart and are
// laid out column-major: seven cells (Monday to Sunday) per week column.
type Grid struct {
	Year        int
	GridStart   time.Time
	GridEnd     time.Time
	DayCount    int
	Cells       []Cell
	MonthLabels []MonthLabel
}

// WeekColumns returns the number of week columns the grid spans.
func (g Grid) WeekColumns() int {
	return g.DayCount / daysPerWeek
}

// Click resolves a click on the cell at offset. Clicks outside the grid and on cells
// without events are ignored.
func (g Grid) Click(offset int) (time.Time, bool) {
	if offset < 0 || offset >= len(g.Cells) {
		return time.Time{}, false
	}
	cell := g.Cells[offset]
	if cell.EventCount == 0 {
		return time.Time{}, false
	}
	return cell.Date, true
}
