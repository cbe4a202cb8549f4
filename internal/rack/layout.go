// Package rack computes the two-column rack layout shown on a tool's detail
// page and the scroll effect that brings the tool's rack into view.
package rack

import "strconv"

const (
	// Positions is the number of rack positions across both columns.
	Positions = 40
	perColumn = Positions / 2
)

type Cell struct {
	Label   string
	ID      string
	Current bool
}

// Layout holds the left column (40 down to 21) and the right column
// (20 down to 1) for one rack-position input.
type Layout struct {
	Current string
	Left    []Cell
	Right   []Cell
}

// CellID returns the element id used for the cell with the given label.
func CellID(label string) string {
	return "rack-" + label
}

// Build enumerates both columns and marks the cell whose label equals current.
// A label outside 1..40 marks nothing.
func Build(current string) Layout {
	return Layout{
		Current: current,
		Left:    column(Positions, current),
		Right:   column(perColumn, current),
	}
}

func column(top int, current string) []Cell {
	cells := make([]Cell, 0, perColumn)
	for i := 0; i < perColumn; i++ {
		label := strconv.Itoa(top - i)
		cells = append(cells, Cell{
			Label:   label,
			ID:      CellID(label),
			Current: label == current,
		})
	}
	return cells
}

// Match returns the highlighted cell, if any.
func (l Layout) Match() (Cell, bool) {
	for _, c := range l.Cells() {
		if c.Current {
			return c, true
		}
	}
	return Cell{}, false
}

// Cells returns the left column followed by the right column.
func (l Layout) Cells() []Cell {
	out := make([]Cell, 0, len(l.Left)+len(l.Right))
	out = append(out, l.Left...)
	return append(out, l.Right...)
}

// Scroller moves the element with the given id to the vertical centre of its
// scroll container.
type Scroller interface {
	ScrollIntoView(cellID string)
}

// ScrollEffect runs the scroll side effect after a layout is rendered. It is
// keyed by the layout's rack-position input: applying the same input twice
// scrolls at most once, and an input with no matching cell never scrolls.
type ScrollEffect struct {
	applied bool
	key     string
}

// Apply runs the effect for l and reports whether it scrolled.
func (e *ScrollEffect) Apply(l Layout, s Scroller) bool {
	if e.applied && e.key == l.Current {
		return false
	}
	e.applied = true
	e.key = l.Current

	cell, ok := l.Match()
	if !ok || s == nil {
		return false
	}
	s.ScrollIntoView(cell.ID)
	return true
}
