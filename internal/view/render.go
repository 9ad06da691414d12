package view

import "scanmap-server/internal/scan"

// Renderer is the presentation adapter. The engine computes summary, grid
// and table once; adapters only translate the results into their output
// format, so page variants never fork the algorithm.
type Renderer interface {
	RenderSummary(summary Summary)
	RenderGrid(cells []Cell)
	RenderTable(squads []Squad, visibility VisibilityMap)
}

// Render runs the grouping, aggregation and visibility engines over one
// scan's objects and feeds the adapter. The grid and summary are computed
// from different slices of the same pass: the grid always shows the whole
// scan, the summary and table honor the active filter.
func Render(objects []scan.ScannedObject, vs ViewState, r Renderer) {
	squads := GroupSquads(objects)

	r.RenderSummary(Summarize(objects, vs))
	r.RenderGrid(AggregateGrid(objects))
	r.RenderTable(squads, ComputeVisibility(squads, vs))
}
