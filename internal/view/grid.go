package view

import (
	"sort"
	"strings"

	"scanmap-server/internal/scan"
)

// GridSize is the edge length of the coordinate grid.
const GridSize = 20

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Magnitude buckets a cell's live count for display sizing only.
type Magnitude string

const (
	MagnitudeLarge  Magnitude = "large"  // up to 9 entities
	MagnitudeMedium Magnitude = "medium" // 10 to 99
	MagnitudeSmall  Magnitude = "small"  // 100 and up
)

// Cell aggregates the objects sharing one grid coordinate. Statuses is the
// distinct set of faction statuses present (wrecks included); LiveCount
// excludes wreck/debris objects.
type Cell struct {
	Coord
	Statuses  []string
	LiveCount int
}

// Mixed reports whether more than one faction is present in the cell.
func (c *Cell) Mixed() bool {
	return len(c.Statuses) > 1
}

// Classification returns the cell's render class: "<status>-only" for a
// single-faction cell, "mixed" otherwise. A cell with no statuses has no
// class.
func (c *Cell) Classification() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	if c.Mixed() {
		return "mixed"
	}
	return strings.ToLower(c.Statuses[0]) + "-only"
}

// Magnitude returns the display bucket for the cell's live count. Bigger
// counts get the smaller class so the number still fits the cell.
func (c *Cell) Magnitude() Magnitude {
	switch {
	case c.LiveCount > 99:
		return MagnitudeSmall
	case c.LiveCount > 9:
		return MagnitudeMedium
	default:
		return MagnitudeLarge
	}
}

// AggregateGrid buckets status-bearing objects by coordinate. Objects with no
// iffStatus or no reported position contribute to no cell. Cells come back
// ordered by (y, x) for deterministic rendering.
func AggregateGrid(objects []scan.ScannedObject) []Cell {
	type bucket struct {
		statuses map[string]struct{}
		live     int
	}

	buckets := make(map[Coord]*bucket)

	for i := range objects {
		obj := &objects[i]

		status := obj.IFF()
		if status == "" {
			continue
		}

		x, y, ok := obj.Coords()
		if !ok {
			continue
		}

		coord := Coord{X: x, Y: y}
		b, exists := buckets[coord]
		if !exists {
			b = &bucket{statuses: make(map[string]struct{})}
			buckets[coord] = b
		}

		b.statuses[status] = struct{}{}
		if !obj.IsWreckOrDebris() {
			b.live++
		}
	}

	cells := make([]Cell, 0, len(buckets))
	for coord, b := range buckets {
		statuses := make([]string, 0, len(b.statuses))
		for status := range b.statuses {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		cells = append(cells, Cell{
			Coord:     coord,
			Statuses:  statuses,
			LiveCount: b.live,
		})
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})

	return cells
}
