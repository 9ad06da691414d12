package view

import "scanmap-server/internal/scan"

// Squad is a derived grouping of scanned objects sharing a party leader. The
// leader is the member whose entityUID equals the grouping key; when the
// telemetry is inconsistent and no member carries the key, the first-seen
// member stands in as leader.
type Squad struct {
	Key     string
	Leader  scan.ScannedObject
	Members []scan.ScannedObject
}

// Size counts the leader plus members.
func (s *Squad) Size() int {
	return 1 + len(s.Members)
}

// Objects returns the squad in render order, leader first.
func (s *Squad) Objects() []scan.ScannedObject {
	objects := make([]scan.ScannedObject, 0, s.Size())
	objects = append(objects, s.Leader)
	objects = append(objects, s.Members...)
	return objects
}

// GroupSquads partitions objects into squads keyed by partyLeaderUID (falling
// back to entityUID for solo objects). Squad order is first appearance of
// each key; within a squad the leader moves to the front and everyone else
// keeps arrival order.
func GroupSquads(objects []scan.ScannedObject) []Squad {
	var order []string
	groups := make(map[string][]scan.ScannedObject)

	for i := range objects {
		key := objects[i].GroupKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], objects[i])
	}

	squads := make([]Squad, 0, len(order))
	for _, key := range order {
		members := groups[key]

		leaderIdx := 0
		for i := range members {
			if members[i].EntityUID != nil && *members[i].EntityUID == key {
				leaderIdx = i
				break
			}
		}

		rest := make([]scan.ScannedObject, 0, len(members)-1)
		rest = append(rest, members[:leaderIdx]...)
		rest = append(rest, members[leaderIdx+1:]...)

		squads = append(squads, Squad{
			Key:     key,
			Leader:  members[leaderIdx],
			Members: rest,
		})
	}

	return squads
}
