package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

const (
	cellSize = 10
	cellGap  = 3
	monthGap = 12
	margin   = 15
	gridTop  = 56
)

// Fills follow GitHub's light contribution palette, index = intensity level.
var levelFills = [5]string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"}

// Cells borrowed from adjacent months keep the grid week-aligned but render
// muted.
const mutedFill = "#f6f8fa"

//go:embed templates/calendar.svg.tmpl
var calendarTemplate string

var calendarTmpl = template.Must(template.New("calendar").Parse(calendarTemplate))

type cellViewModel struct {
	X, Y int
	Fill string
}

type monthViewModel struct {
	Label string
	X     int
	Cells []cellViewModel
}

type yearViewModel struct {
	Width  int
	Height int
	Title  string
	Total  string
	Months []monthViewModel
}

// Year renders one year's contribution grid as a standalone SVG card.
func Year(grid core.YearGrid) ([]byte, error) {
	vm := yearViewModel{
		Title:  fmt.Sprintf("%d", grid.Year),
		Total:  fmt.Sprintf("%d contributions", grid.Total),
		Height: gridTop + 7*cellSize + 6*cellGap + margin,
	}

	x := margin
	for _, block := range grid.Months {
		mv := monthViewModel{
			Label: block.Month.String()[:3],
			X:     x,
			Cells: make([]cellViewModel, 0, len(block.Cells)),
		}
		for i, cell := range block.Cells {
			col := i / 7
			row := i % 7
			fill := mutedFill
			if cell.InMonth {
				fill = levelFills[cell.Level]
			}
			mv.Cells = append(mv.Cells, cellViewModel{
				X:    x + col*(cellSize+cellGap),
				Y:    gridTop + row*(cellSize+cellGap),
				Fill: fill,
			})
		}
		vm.Months = append(vm.Months, mv)
		x += block.Width + monthGap
	}
	vm.Width = x - monthGap + margin

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, vm); err != nil {
		return nil, fmt.Errorf("render calendar svg: %w", err)
	}
	return buf.Bytes(), nil
}
