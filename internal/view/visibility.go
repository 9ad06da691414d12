package view

import (
	"strings"

	"scanmap-server/internal/scan"
)

// SquadVisibility is the computed render state of one squad: whether its
// header row shows, whether it renders expanded, and one flag per row in
// Objects() order (leader at index 0).
type SquadVisibility struct {
	Header   bool
	Expanded bool
	Rows     []bool
}

// VisibilityMap holds per-squad visibility keyed by squad key.
type VisibilityMap map[string]SquadVisibility

// ComputeVisibility projects squads through a view state. A squad header is
// visible iff at least one member passes the active filter; a non-empty
// search force-expands squads with a hit; the coordinate filter shows exactly
// the matching rows regardless of fold state.
func ComputeVisibility(squads []Squad, vs ViewState) VisibilityMap {
	terms := searchTerms(vs.Search)

	result := make(VisibilityMap, len(squads))
	for i := range squads {
		squad := &squads[i]
		objects := squad.Objects()

		matches := make([]bool, len(objects))
		anyMatch := false
		for j := range objects {
			matches[j] = MatchesFilters(&objects[j], vs, terms)
			if matches[j] {
				anyMatch = true
			}
		}

		expanded := vs.Expanded[squad.Key]
		if len(terms) > 0 && anyMatch {
			expanded = true
		}

		rows := make([]bool, len(objects))
		for j := range objects {
			if !matches[j] {
				continue
			}
			switch {
			case vs.Coord != nil:
				// Exact-coordinate hits render regardless of fold state
				rows[j] = true
			case j == 0:
				rows[j] = true
			default:
				rows[j] = expanded
			}
		}

		result[squad.Key] = SquadVisibility{
			Header:   anyMatch,
			Expanded: expanded,
			Rows:     rows,
		}
	}

	return result
}

// MatchesFilters composes the three filter predicates. Each inactive filter
// passes everything, so any combination stays well-defined even though the
// UI only ever activates one at a time.
func MatchesFilters(obj *scan.ScannedObject, vs ViewState, terms []string) bool {
	return matchesSearch(obj, terms) && matchesCoord(obj, vs.Coord) && matchesStatus(obj, vs.Status)
}

func searchTerms(search string) []string {
	fields := strings.Fields(strings.ToLower(search))
	return fields
}

func matchesSearch(obj *scan.ScannedObject, terms []string) bool {
	if len(terms) == 0 {
		return true
	}

	haystack := obj.SearchText()
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func matchesCoord(obj *scan.ScannedObject, coord *Coord) bool {
	if coord == nil {
		return true
	}

	x, y, ok := obj.Coords()
	return ok && x == coord.X && y == coord.Y
}

func matchesStatus(obj *scan.ScannedObject, status StatusFilter) bool {
	switch status {
	case StatusFilterNone:
		return true
	case StatusFilterWreck:
		return obj.IsWreckOrDebris()
	default:
		return !obj.IsWreckOrDebris() && obj.IFF() == string(status)
	}
}

// Summary holds the faction totals shown beside the table. It always
// reflects the filtered set, never the raw scan.
type Summary struct {
	Enemy   int `json:"enemy"`
	Friend  int `json:"friend"`
	Neutral int `json:"neutral"`
	Wreck   int `json:"wreck"`
}

// Summarize counts the objects passing the active filter. Wreck/debris
// objects land in the wreck bucket whatever their reported faction; fold
// state never changes the totals.
func Summarize(objects []scan.ScannedObject, vs ViewState) Summary {
	terms := searchTerms(vs.Search)

	var summary Summary
	for i := range objects {
		obj := &objects[i]
		if !MatchesFilters(obj, vs, terms) {
			continue
		}

		if obj.IsWreckOrDebris() {
			summary.Wreck++
			continue
		}

		switch obj.IFF() {
		case scan.IFFEnemy:
			summary.Enemy++
		case scan.IFFFriend:
			summary.Friend++
		case scan.IFFNeutral:
			summary.Neutral++
		}
	}

	return summary
}
