package core

import "time"

const (
	dayWidth  = 10
	columnGap = 3
)

// DayCell is one square of the contribution grid. Cells from adjacent months
// appear in a block for week alignment but are marked InMonth=false and muted
// to level 0.
type DayCell struct {
	Date    string         `json:"date"`
	Count   int            `json:"count"`
	Level   int            `json:"level"`
	PerUser map[string]int `json:"perUser,omitempty"`
	InMonth bool           `json:"inMonth"`
}

// MonthBlock spans whole weeks: from the Sunday on or before the 1st through
// the Saturday on or after the last day of the month.
type MonthBlock struct {
	Month time.Month `json:"month"`
	Cells []DayCell  `json:"cells"`
	Weeks int        `json:"weeks"`
	Width int        `json:"width"`
}

type YearGrid struct {
	Year   int          `json:"year"`
	Months []MonthBlock `json:"months"`
	Total  int          `json:"total"`
}

// ContributionLevel buckets a day's count into the 0-4 intensity scale.
func ContributionLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 8:
		return 3
	default:
		return 4
	}
}

// monthRange returns the week-aligned span of a month: the Sunday on or
// before the 1st and the Saturday on or after the last day. Both the grid and
// the block widths derive from this single rule so they stay aligned.
func monthRange(year int, month time.Month) (start, end time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	start = first.AddDate(0, 0, -int(first.Weekday()))
	end = last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	return start, end
}

// BuildYearGrid lays out twelve week-aligned month blocks for a year from the
// combined contribution map, recording per-user counts for tooltip detail.
func BuildYearGrid(year int, combined ContributionMap, perUser map[string]ContributionMap, users []string) YearGrid {
	grid := YearGrid{
		Year:   year,
		Months: make([]MonthBlock, 0, 12),
		Total:  CountContributions(combined),
	}

	for month := time.January; month <= time.December; month++ {
		start, end := monthRange(year, month)
		days := int(end.Sub(start).Hours()/24) + 1
		weeks := (days + 6) / 7

		block := MonthBlock{
			Month: month,
			Cells: make([]DayCell, 0, days),
			Weeks: weeks,
			Width: weeks*dayWidth + (weeks-1)*columnGap,
		}

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			date := d.Format(DateFormat)
			count := combined[date]
			inMonth := d.Month() == month

			cell := DayCell{
				Date:    date,
				Count:   count,
				InMonth: inMonth,
			}
			if inMonth {
				cell.Level = ContributionLevel(count)
			}
			if count > 0 {
				cell.PerUser = make(map[string]int, len(users))
				for _, user := range users {
					if n := perUser[user][date]; n > 0 {
						cell.PerUser[user] = n
					}
				}
			}
			block.Cells = append(block.Cells, cell)
		}

		grid.Months = append(grid.Months, block)
	}

	return grid
}

// MonthBlockWidth reports the pixel width of a month block: one column per
// week, no trailing gap after the last column.
func MonthBlockWidth(year int, month time.Month) int {
	start, end := monthRange(year, month)
	days := int(end.Sub(start).Hours()/24) + 1
	weeks := (days + 6) / 7
	return weeks*dayWidth + (weeks-1)*columnGap
}
