package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanmap-server/internal/scan"
)

func TestGroupSquadsPartitionsByLeader(t *testing.T) {
	objects := []scan.ScannedObject{
		testObject("ship-1", "leader-1", "Falcon", scan.IFFEnemy),
		testObject("solo-1", "", "Drifter", scan.IFFNeutral),
		testObject("leader-1", "leader-1", "Flagship", scan.IFFEnemy),
		testObject("ship-2", "leader-1", "Raven", scan.IFFEnemy),
	}

	squads := GroupSquads(objects)
	require.Len(t, squads, 2)

	// Squad order follows first appearance of each key
	assert.Equal(t, "leader-1", squads[0].Key)
	assert.Equal(t, "solo-1", squads[1].Key)

	// The member whose entityUID matches the key leads, regardless of arrival order
	party := squads[0]
	assert.Equal(t, "Flagship", *party.Leader.Name)
	assert.Equal(t, 3, party.Size())

	rendered := party.Objects()
	require.Len(t, rendered, 3)
	assert.Equal(t, "Flagship", *rendered[0].Name)
	assert.Equal(t, "Falcon", *rendered[1].Name)
	assert.Equal(t, "Raven", *rendered[2].Name)

	// Every object lands in exactly one squad
	total := 0
	for i := range squads {
		total += squads[i].Size()
	}
	assert.Equal(t, len(objects), total)
}

func TestGroupSquadsSoloObjectKeyedByOwnUID(t *testing.T) {
	squads := GroupSquads([]scan.ScannedObject{
		testObject("solo-1", "", "Drifter", scan.IFFNeutral),
	})

	require.Len(t, squads, 1)
	assert.Equal(t, "solo-1", squads[0].Key)
	assert.Equal(t, 1, squads[0].Size())
	assert.Empty(t, squads[0].Members)
}

func TestGroupSquadsMissingLeaderFallsBackToFirstSeen(t *testing.T) {
	// Leader "ghost-1" never appears in the scan
	squads := GroupSquads([]scan.ScannedObject{
		testObject("ship-1", "ghost-1", "Falcon", scan.IFFEnemy),
		testObject("ship-2", "ghost-1", "Raven", scan.IFFEnemy),
	})

	require.Len(t, squads, 1)
	assert.Equal(t, "ghost-1", squads[0].Key)
	assert.Equal(t, "Falcon", *squads[0].Leader.Name)
	require.Len(t, squads[0].Members, 1)
	assert.Equal(t, "Raven", *squads[0].Members[0].Name)
}
