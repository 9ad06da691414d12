package handlers

import (
	"scanmap-server/internal/scan"
	"scanmap-server/internal/view"
)

// viewPayload is the JSON projection of one rendered view: summary totals,
// the full-scan grid and the squad table with per-row visibility.
type viewPayload struct {
	Summary view.Summary `json:"summary"`
	Grid    []cellView   `json:"grid"`
	Squads  []squadView  `json:"squads"`
}

type cellView struct {
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Statuses       []string `json:"statuses"`
	Classification string   `json:"classification"`
	LiveCount      int      `json:"liveCount"`
	Magnitude      string   `json:"magnitude"`
}

type squadView struct {
	Key      string    `json:"key"`
	Size     int       `json:"size"`
	Visible  bool      `json:"visible"`
	Expanded bool      `json:"expanded"`
	Rows     []rowView `json:"rows"`
}

type rowView struct {
	scan.ScannedObject
	Leader  bool `json:"leader"`
	Visible bool `json:"visible"`
}

// jsonRenderer collects the engine's output into a viewPayload.
type jsonRenderer struct {
	vs     view.ViewState
	result viewPayload
}

func newJSONRenderer(vs view.ViewState) *jsonRenderer {
	return &jsonRenderer{vs: vs}
}

func (r *jsonRenderer) RenderSummary(summary view.Summary) {
	r.result.Summary = summary
}

func (r *jsonRenderer) RenderGrid(cells []view.Cell) {
	out := make([]cellView, len(cells))
	for i := range cells {
		cell := &cells[i]
		out[i] = cellView{
			X:              cell.X,
			Y:              cell.Y,
			Statuses:       cell.Statuses,
			Classification: cell.Classification(),
			LiveCount:      cell.LiveCount,
			Magnitude:      string(cell.Magnitude()),
		}
	}
	r.result.Grid = out
}

func (r *jsonRenderer) RenderTable(squads []view.Squad, visibility view.VisibilityMap) {
	out := make([]squadView, 0, len(squads))
	for i := range squads {
		squad := &squads[i]
		vis := visibility[squad.Key]
		objects := squad.Objects()

		rows := make([]rowView, len(objects))
		for j := range objects {
			rows[j] = rowView{
				ScannedObject: objects[j],
				Leader:        j == 0,
				Visible:       vis.Rows[j],
			}
		}

		out = append(out, squadView{
			Key:      squad.Key,
			Size:     squad.Size(),
			Visible:  vis.Header,
			Expanded: vis.Expanded,
			Rows:     rows,
		})
	}
	r.result.Squads = out
}

func (r *jsonRenderer) payload() viewPayload {
	if r.result.Grid == nil {
		r.result.Grid = []cellView{}
	}
	if r.result.Squads == nil {
		r.result.Squads = []squadView{}
	}
	return r.result
}
