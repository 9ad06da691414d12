package scan

import "strings"

// IFF classifications as they appear in scan telemetry.
const (
	IFFFriend  = "Friend"
	IFFEnemy   = "Enemy"
	IFFNeutral = "Neutral"
)

// Scan is one ingested sensor sweep. The tuple (characterName, years, days,
// hours, minutes, seconds, galX, galY, layer) uniquely identifies a sweep and
// is the deduplication key.
type Scan struct {
	ID            int    `json:"id"`
	CharacterName string `json:"characterName"`
	GalX          int    `json:"galX"`
	GalY          int    `json:"galY"`
	Layer         string `json:"layer"`
	Years         int    `json:"years"`
	Days          int    `json:"days"`
	Hours         int    `json:"hours"`
	Minutes       int    `json:"minutes"`
	Seconds       int    `json:"seconds"`
}

// ScanSummary is the catalog row returned by the scan list endpoint, newest
// id first.
type ScanSummary struct {
	ID            int    `json:"id"`
	CharacterName string `json:"characterName"`
	GalX          int    `json:"galX"`
	GalY          int    `json:"galY"`
	Years         int    `json:"years"`
	Days          int    `json:"days"`
	Hours         int    `json:"hours"`
	Minutes       int    `json:"minutes"`
	Seconds       int    `json:"seconds"`
}

// ScannedObject is one entity detected during a scan. Every field the sensor
// may omit is a pointer so absence survives the round trip to the database
// and out to JSON as null.
type ScannedObject struct {
	ID                int     `json:"id"`
	ScanID            int     `json:"scanID"`
	InParty           *string `json:"inParty"`
	Name              *string `json:"name"`
	TypeName          *string `json:"typeName"`
	TypeUID           *string `json:"typeUID"`
	EntityID          *int    `json:"entityID"`
	EntityType        *int    `json:"entityType"`
	EntityTypeName    *string `json:"entityTypeName"`
	EntityUID         *string `json:"entityUID"`
	Hull              *int    `json:"hull"`
	HullMax           *int    `json:"hullMax"`
	Shield            *int    `json:"shield"`
	ShieldMax         *int    `json:"shieldMax"`
	Ionic             *int    `json:"ionic"`
	IonicMax          *int    `json:"ionicMax"`
	UnderConstruction *string `json:"underConstruction"`
	SharingSensors    *string `json:"sharingSensors"`
	X                 *int    `json:"x"`
	Y                 *int    `json:"y"`
	TravelDirection   *string `json:"travelDirection"`
	OwnerName         *string `json:"ownerName"`
	OwnerUID          *string `json:"ownerUID"`
	IFFStatus         *string `json:"iffStatus"`
	Image             *string `json:"image"`
	PartyLeaderUID    *string `json:"partyLeaderUID"`
	PartyLeaderName   *string `json:"partyLeaderName"`
}

// GroupKey is the squad grouping key: the party leader when the object
// belongs to a party, otherwise the object's own identity. A leaderless
// object forms a squad of one.
func (o *ScannedObject) GroupKey() string {
	if key := strVal(o.PartyLeaderUID); key != "" {
		return key
	}
	return strVal(o.EntityUID)
}

// IFF returns the object's faction status, or "" when the sensor reported
// none.
func (o *ScannedObject) IFF() string {
	return strVal(o.IFFStatus)
}

// IsWreckOrDebris reports whether the object is wreckage. The substring test
// on name and type is the single classification rule used for live-entity
// counts and the Wreck filter; "Wreckage" and "Space Debris" both match.
func (o *ScannedObject) IsWreckOrDebris() bool {
	name := strings.ToLower(strVal(o.Name))
	typeName := strings.ToLower(strVal(o.TypeName))

	return strings.Contains(typeName, "wreck") ||
		strings.Contains(typeName, "debris") ||
		strings.Contains(name, "wreck") ||
		strings.Contains(name, "debris")
}

// SearchText is the concatenated haystack free-text search matches against.
func (o *ScannedObject) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		strVal(o.Name),
		strVal(o.TypeName),
		strVal(o.OwnerName),
		strVal(o.EntityUID),
	}, " "))
}

// Coords returns the grid position and whether both coordinates were
// reported.
func (o *ScannedObject) Coords() (x, y int, ok bool) {
	if o.X == nil || o.Y == nil {
		return 0, 0, false
	}
	return *o.X, *o.Y, true
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
