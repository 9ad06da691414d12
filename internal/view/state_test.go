package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleSquadLeavesOriginalUntouched(t *testing.T) {
	initial := NewViewState()

	expanded := initial.ToggleSquad("squad-1")
	assert.True(t, expanded.Expanded["squad-1"])
	assert.False(t, initial.Expanded["squad-1"])

	collapsed := expanded.ToggleSquad("squad-1")
	assert.False(t, collapsed.Expanded["squad-1"])
	assert.True(t, expanded.Expanded["squad-1"])
}

func TestFiltersDisplaceEachOther(t *testing.T) {
	vs := NewViewState().WithSearch("falcon")
	assert.Equal(t, "falcon", vs.Search)

	vs = vs.WithCoordFilter(3, 4)
	assert.Empty(t, vs.Search)
	assert.Equal(t, &Coord{X: 3, Y: 4}, vs.Coord)

	vs = vs.WithStatusFilter(StatusFilterEnemy)
	assert.Nil(t, vs.Coord)
	assert.Equal(t, StatusFilterEnemy, vs.Status)

	vs = vs.WithSearch("raven")
	assert.Equal(t, StatusFilterNone, vs.Status)
	assert.Equal(t, "raven", vs.Search)
}

func TestWithStatusFilterCollapsesEverySquad(t *testing.T) {
	vs := NewViewState().ToggleSquad("squad-1").ToggleSquad("squad-2")

	filtered := vs.WithStatusFilter(StatusFilterWreck)
	assert.Empty(t, filtered.Expanded)
	// Other filters keep fold state intact
	searched := vs.WithSearch("falcon")
	assert.True(t, searched.Expanded["squad-1"])
}

func TestClearFiltersKeepsFoldState(t *testing.T) {
	vs := NewViewState().ToggleSquad("squad-1").WithCoordFilter(3, 4)

	cleared := vs.ClearFilters()
	assert.Nil(t, cleared.Coord)
	assert.Empty(t, cleared.Search)
	assert.Equal(t, StatusFilterNone, cleared.Status)
	assert.True(t, cleared.Expanded["squad-1"])
}

func TestUnfoldAllExpandsListedSquads(t *testing.T) {
	squads := []Squad{{Key: "squad-1"}, {Key: "squad-2"}}

	vs := NewViewState().UnfoldAll(squads)
	assert.True(t, vs.Expanded["squad-1"])
	assert.True(t, vs.Expanded["squad-2"])

	folded := vs.FoldAll()
	assert.Empty(t, folded.Expanded)
}

func TestParseStatusFilter(t *testing.T) {
	assert.Equal(t, StatusFilterEnemy, ParseStatusFilter("Enemy"))
	assert.Equal(t, StatusFilterWreck, ParseStatusFilter("Wreck"))
	assert.Equal(t, StatusFilterNone, ParseStatusFilter("enemy"))
	assert.Equal(t, StatusFilterNone, ParseStatusFilter("bogus"))
	assert.Equal(t, StatusFilterNone, ParseStatusFilter(""))
}
