package view

// StatusFilter selects one faction summary bucket, or nothing.
type StatusFilter string

const (
	StatusFilterNone    StatusFilter = ""
	StatusFilterEnemy   StatusFilter = "Enemy"
	StatusFilterFriend  StatusFilter = "Friend"
	StatusFilterNeutral StatusFilter = "Neutral"
	StatusFilterWreck   StatusFilter = "Wreck"
)

// ParseStatusFilter maps user input onto a filter, treating anything
// unrecognized as no filter.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusFilterEnemy, StatusFilterFriend, StatusFilterNeutral, StatusFilterWreck:
		return StatusFilter(s)
	}
	return StatusFilterNone
}

// ViewState is one immutable snapshot of the presentation controls: the
// free-text search, the active filter (the three filters are mutually
// exclusive at the UI level) and the per-squad fold map. Transitions return
// fresh states; a render is a pure projection of objects through a state.
type ViewState struct {
	Search   string
	Coord    *Coord
	Status   StatusFilter
	Expanded map[string]bool
}

// NewViewState returns the initial state: no filters, every squad collapsed.
func NewViewState() ViewState {
	return ViewState{Expanded: make(map[string]bool)}
}

// ToggleSquad flips one squad between collapsed and expanded.
func (vs ViewState) ToggleSquad(key string) ViewState {
	next := vs.clone()
	next.Expanded[key] = !vs.Expanded[key]
	return next
}

// FoldAll collapses every squad.
func (vs ViewState) FoldAll() ViewState {
	next := vs.clone()
	next.Expanded = make(map[string]bool)
	return next
}

// UnfoldAll expands every listed squad. Filtered-out members stay hidden.
func (vs ViewState) UnfoldAll(squads []Squad) ViewState {
	next := vs.clone()
	next.Expanded = make(map[string]bool, len(squads))
	for i := range squads {
		next.Expanded[squads[i].Key] = true
	}
	return next
}

// WithSearch applies a free-text search, displacing the other filters. Fold
// state is untouched; visibility computation force-expands squads with a
// matching member so a non-empty search never hides its hits.
func (vs ViewState) WithSearch(text string) ViewState {
	next := vs.clone()
	next.Search = text
	next.Coord = nil
	next.Status = StatusFilterNone
	return next
}

// WithCoordFilter narrows visibility to exact (x, y) matches, displacing the
// other filters. Fold state is untouched but ignored while the filter is
// active: only matching rows show, not their whole squads.
func (vs ViewState) WithCoordFilter(x, y int) ViewState {
	next := vs.clone()
	next.Search = ""
	next.Coord = &Coord{X: x, Y: y}
	next.Status = StatusFilterNone
	return next
}

// WithStatusFilter applies a faction filter, displacing the other filters and
// collapsing every squad, matching the summary-click behavior users already
// rely on.
func (vs ViewState) WithStatusFilter(status StatusFilter) ViewState {
	next := vs.clone()
	next.Search = ""
	next.Coord = nil
	next.Status = status
	next.Expanded = make(map[string]bool)
	return next
}

// ClearFilters drops every active filter without touching fold state.
func (vs ViewState) ClearFilters() ViewState {
	next := vs.clone()
	next.Search = ""
	next.Coord = nil
	next.Status = StatusFilterNone
	return next
}

func (vs ViewState) clone() ViewState {
	expanded := make(map[string]bool, len(vs.Expanded))
	for k, v := range vs.Expanded {
		expanded[k] = v
	}

	next := vs
	next.Expanded = expanded
	if vs.Coord != nil {
		coord := *vs.Coord
		next.Coord = &coord
	}
	return next
}
