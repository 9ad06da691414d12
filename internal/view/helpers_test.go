package view

import "scanmap-server/internal/scan"

func strPtr(s string) *string { return &s }
func numPtr(n int) *int       { return &n }

// testObject builds a scanned object with the fields the view engine reads.
// Empty strings stay nil so absence paths get exercised.
func testObject(entityUID, partyLeaderUID, name, iffStatus string) scan.ScannedObject {
	obj := scan.ScannedObject{}
	if entityUID != "" {
		obj.EntityUID = strPtr(entityUID)
	}
	if partyLeaderUID != "" {
		obj.PartyLeaderUID = strPtr(partyLeaderUID)
	}
	if name != "" {
		obj.Name = strPtr(name)
	}
	if iffStatus != "" {
		obj.IFFStatus = strPtr(iffStatus)
	}
	return obj
}

func placed(obj scan.ScannedObject, x, y int) scan.ScannedObject {
	obj.X = numPtr(x)
	obj.Y = numPtr(y)
	return obj
}
