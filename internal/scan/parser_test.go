package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanmap-server/internal/shared/errors"
)

const sampleScanXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <characterName>Kestrel</characterName>
    <cgt>
      <years>423</years>
      <days>211</days>
      <hours>7</hours>
      <minutes>33</minutes>
      <seconds>12</seconds>
    </cgt>
    <location>
      <galX>12</galX>
      <galY>7</galY>
      <layer>2</layer>
    </location>
    <item>
      <name>Falcon</name>
      <typeName>Heavy Cruiser</typeName>
      <entityUID>uid-falcon</entityUID>
      <iffStatus>Enemy</iffStatus>
      <hull>820</hull>
      <hullMax>1000</hullMax>
      <x>3</x>
      <y>14</y>
      <partyLeaderUID>uid-leader</partyLeaderUID>
    </item>
    <item>
      <name>Drifting Wreckage</name>
      <entityUID>uid-wreck</entityUID>
      <hull>garbled</hull>
    </item>
  </channel>
</rss>`

func TestParseScanExtractsHeaderAndObjects(t *testing.T) {
	scan, objects, err := ParseScan([]byte(sampleScanXML), "text/xml")
	require.NoError(t, err)

	assert.Equal(t, "Kestrel", scan.CharacterName)
	assert.Equal(t, 12, scan.GalX)
	assert.Equal(t, 7, scan.GalY)
	assert.Equal(t, "2", scan.Layer)
	assert.Equal(t, 423, scan.Years)
	assert.Equal(t, 211, scan.Days)
	assert.Equal(t, 7, scan.Hours)
	assert.Equal(t, 33, scan.Minutes)
	assert.Equal(t, 12, scan.Seconds)

	require.Len(t, objects, 2)

	falcon := objects[0]
	require.NotNil(t, falcon.Name)
	assert.Equal(t, "Falcon", *falcon.Name)
	require.NotNil(t, falcon.Hull)
	assert.Equal(t, 820, *falcon.Hull)
	require.NotNil(t, falcon.X)
	assert.Equal(t, 3, *falcon.X)
	require.NotNil(t, falcon.PartyLeaderUID)
	assert.Equal(t, "uid-leader", *falcon.PartyLeaderUID)

	wreck := objects[1]
	// Absent fields stay nil, a garbled numeric nulls only itself
	assert.Nil(t, wreck.IFFStatus)
	assert.Nil(t, wreck.X)
	assert.Nil(t, wreck.Hull)
	require.NotNil(t, wreck.Name)
	assert.True(t, wreck.IsWreckOrDebris())
}

func TestParseScanRejectsNonXMLContent(t *testing.T) {
	_, _, err := ParseScan([]byte("just some plain text"), "text/plain")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
	assert.Equal(t, "Error: The uploaded file is not a valid XML file.", errors.Message(err))
}

func TestParseScanRejectsMalformedXML(t *testing.T) {
	_, _, err := ParseScan([]byte("<?xml version=\"1.0\"?><channel><unclosed"), "text/xml")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
	assert.Equal(t, "Error: Failed to parse the XML file.", errors.Message(err))
}

func TestParseScanSniffsContentWhenTypeIsGeneric(t *testing.T) {
	// Some clients upload XML as application/octet-stream
	scan, objects, err := ParseScan([]byte(sampleScanXML), "application/octet-stream")
	require.NoError(t, err)

	assert.Equal(t, "Kestrel", scan.CharacterName)
	assert.Len(t, objects, 2)
}

func TestIsWreckOrDebrisMatchesNameAndType(t *testing.T) {
	wreckName := ScannedObject{Name: strPtrTest("Falcon Wreckage")}
	debrisType := ScannedObject{TypeName: strPtrTest("Space Debris Field")}
	live := ScannedObject{Name: strPtrTest("Falcon"), TypeName: strPtrTest("Heavy Cruiser")}

	assert.True(t, wreckName.IsWreckOrDebris())
	assert.True(t, debrisType.IsWreckOrDebris())
	assert.False(t, live.IsWreckOrDebris())
}

func TestGroupKeyFallsBackToEntityUID(t *testing.T) {
	solo := ScannedObject{EntityUID: strPtrTest("uid-solo")}
	party := ScannedObject{EntityUID: strPtrTest("uid-ship"), PartyLeaderUID: strPtrTest("uid-leader")}

	assert.Equal(t, "uid-solo", solo.GroupKey())
	assert.Equal(t, "uid-leader", party.GroupKey())
}

func strPtrTest(s string) *string { return &s }
