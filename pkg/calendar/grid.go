package calendar

import (
	"time"
)

// ComputeGridBounds returns the Monday on or before Jan 1 and the Sunday on or after Dec 31
// of the given year, together with the inclusive number of days between them.
func ComputeGridBounds(year int, loc *time.Location) (time.Time, time.Time, int) {
	if loc == nil {
		loc = time.UTC
	}
	firstDay := startOfDay(year, time.January, 1, loc)
	lastDay := startOfDay(year, time.December, 31, loc)

	gridStart := startOfWeek(firstDay)
	gridEnd := endOfWeek(lastDay)

	return gridStart, gridEnd, daysBetween(gridStart, gridEnd) + 1
}

// BuildCells produces one cell per day starting at gridStart. Events are matched at day
// granularity in the location of gridStart; events with a zero date never match.
func BuildCells(gridStart time.Time, dayCount int, events []EventDate) []Cell {
	if dayCount < 0 {
		dayCount = 0
	}
	loc := gridStart.Location()
	countByDay := make(map[dayKey]int, len(events))
	for _, event := range events {
		if event.Date.IsZero() {
			continue
		}
		countByDay[keyOf(event.Date.In(loc))]++
	}

	cells := make([]Cell, 0, dayCount)
	for i := 0; i < dayCount; i++ {
		date := addDays(gridStart, i)
		count := countByDay[keyOf(date)]
		cells = append(cells, Cell{
			Offset:     i,
			Date:       date,
			EventCount: count,
			Tier:       TierFor(count),
			Opacity:    OpacityFor(count),
		})
	}
	return cells
}

// MonthLabelOffset returns the first week column whose start date (gridStart + 7w days) lies
// in the given month of year. The walk is capped at MaxWeekColumns and falls back to 0.
func MonthLabelOffset(gridStart time.Time, year int, month time.Month) int {
	for w := 0; w < MaxWeekColumns; w++ {
		weekStart := addDays(gridStart, w*daysPerWeek)
		if weekStart.Year() == year && weekStart.Month() == month {
			return w
		}
	}
	return 0
}

func MonthLabels(gridStart time.Time, year int) []MonthLabel {
	labels := make([]MonthLabel, 0, 12)
	for month := time.January; month <= time.December; month++ {
		labels = append(labels, MonthLabel{
			Month:      month,
			WeekColumn: MonthLabelOffset(gridStart, year, month),
		})
	}
	return labels
}

// BuildGrid lays out the heat-map for year in loc.
func BuildGrid(year int, events []EventDate, loc *time.Location) Grid {
	gridStart, gridEnd, dayCount := ComputeGridBounds(year, loc)
	return Grid{
		Year:        year,
		GridStart:   gridStart,
		GridEnd:     gridEnd,
		DayCount:    dayCount,
		Cells:       BuildCells(gridStart, dayCount, events),
		MonthLabels: MonthLabels(gridStart, year),
	}
}

func TierFor(count int) Tier {
	switch {
	case count < 3:
		return TierNone
	case count == 3:
		return TierThree
	case count == 4:
		return TierFour
	default:
		return TierMany
	}
}

func OpacityFor(count int) float64 {
	if TierFor(count) != TierNone {
		return 1
	}
	if count <= 0 {
		return 0
	}
	return float64(count) / 3
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return keyOf(a.In(loc)) == keyOf(b.In(loc))
}

// startOfDay returns the first instant of the calendar day in loc. Where the clocks skip
// midnight (DST starting at 00:00) that is the first instant after the gap.
func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	want := keyOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	for step := 0; step < 4*24 && keyOf(t) != want; step++ {
		t = t.Add(15 * time.Minute)
	}
	return t
}

// addDays moves n calendar days from date, keeping day identity across DST transitions.
func addDays(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	return startOfDay(y, m, d+n, date.Location())
}

func startOfWeek(date time.Time) time.Time {
	delta := (int(date.Weekday()) - int(time.Monday) + daysPerWeek) % daysPerWeek
	return addDays(date, -delta)
}

func endOfWeek(date time.Time) time.Time {
	delta := (int(time.Sunday) - int(date.Weekday()) + daysPerWeek) % daysPerWeek
	return addDays(date, delta)
}

// daysBetween counts calendar days, so DST transitions in the grid location do not shift it.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
