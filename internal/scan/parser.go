package scan

import (
	"encoding/xml"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"scanmap-server/internal/shared/errors"
)

// scanDocument mirrors the fixed layout of an uploaded telemetry file. Item
// fields stay strings here so a single garbled value nulls only itself
// instead of failing the whole document.
type scanDocument struct {
	Channel struct {
		CharacterName string `xml:"characterName"`
		CGT           struct {
			Years   string `xml:"years"`
			Days    string `xml:"days"`
			Hours   string `xml:"hours"`
			Minutes string `xml:"minutes"`
			Seconds string `xml:"seconds"`
		} `xml:"cgt"`
		Location struct {
			GalX  string `xml:"galX"`
			GalY  string `xml:"galY"`
			Layer string `xml:"layer"`
		} `xml:"location"`
		Items []scanItem `xml:"item"`
	} `xml:"channel"`
}

type scanItem struct {
	InParty           *string `xml:"inParty"`
	Name              *string `xml:"name"`
	TypeName          *string `xml:"typeName"`
	TypeUID           *string `xml:"typeUID"`
	EntityID          *string `xml:"entityID"`
	EntityType        *string `xml:"entityType"`
	EntityTypeName    *string `xml:"entityTypeName"`
	EntityUID         *string `xml:"entityUID"`
	Hull              *string `xml:"hull"`
	HullMax           *string `xml:"hullMax"`
	Shield            *string `xml:"shield"`
	ShieldMax         *string `xml:"shieldMax"`
	Ionic             *string `xml:"ionic"`
	IonicMax          *string `xml:"ionicMax"`
	UnderConstruction *string `xml:"underConstruction"`
	SharingSensors    *string `xml:"sharingSensors"`
	X                 *string `xml:"x"`
	Y                 *string `xml:"y"`
	TravelDirection   *string `xml:"travelDirection"`
	OwnerName         *string `xml:"ownerName"`
	OwnerUID          *string `xml:"ownerUID"`
	IFFStatus         *string `xml:"iffStatus"`
	Image             *string `xml:"image"`
	PartyLeaderUID    *string `xml:"partyLeaderUID"`
	PartyLeaderName   *string `xml:"partyLeaderName"`
}

// ParseScan extracts a Scan and its detected objects from an uploaded file.
// declaredType is the Content-Type the client attached to the multipart part;
// the content itself is sniffed as a fallback for clients that send XML as
// application/octet-stream.
func ParseScan(data []byte, declaredType string) (*Scan, []ScannedObject, error) {
	logger := slog.With("component", "scan_parser")

	if !isXMLMediaType(declaredType) && !isXMLMediaType(http.DetectContentType(data)) {
		logger.Debug("Rejected upload with non-XML media type", "declared_type", declaredType)
		return nil, nil, errors.Validation("Error: The uploaded file is not a valid XML file.")
	}

	var doc scanDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		logger.Debug("Rejected malformed XML", "error", err)
		return nil, nil, errors.WrapValidation("Error: Failed to parse the XML file.", err)
	}

	scan := &Scan{
		CharacterName: doc.Channel.CharacterName,
		GalX:          intOrZero(doc.Channel.Location.GalX),
		GalY:          intOrZero(doc.Channel.Location.GalY),
		Layer:         doc.Channel.Location.Layer,
		Years:         intOrZero(doc.Channel.CGT.Years),
		Days:          intOrZero(doc.Channel.CGT.Days),
		Hours:         intOrZero(doc.Channel.CGT.Hours),
		Minutes:       intOrZero(doc.Channel.CGT.Minutes),
		Seconds:       intOrZero(doc.Channel.CGT.Seconds),
	}

	objects := make([]ScannedObject, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		objects = append(objects, ScannedObject{
			InParty:           item.InParty,
			Name:              item.Name,
			TypeName:          item.TypeName,
			TypeUID:           item.TypeUID,
			EntityID:          intPtr(item.EntityID),
			EntityType:        intPtr(item.EntityType),
			EntityTypeName:    item.EntityTypeName,
			EntityUID:         item.EntityUID,
			Hull:              intPtr(item.Hull),
			HullMax:           intPtr(item.HullMax),
			Shield:            intPtr(item.Shield),
			ShieldMax:         intPtr(item.ShieldMax),
			Ionic:             intPtr(item.Ionic),
			IonicMax:          intPtr(item.IonicMax),
			UnderConstruction: item.UnderConstruction,
			SharingSensors:    item.SharingSensors,
			X:                 intPtr(item.X),
			Y:                 intPtr(item.Y),
			TravelDirection:   item.TravelDirection,
			OwnerName:         item.OwnerName,
			OwnerUID:          item.OwnerUID,
			IFFStatus:         item.IFFStatus,
			Image:             item.Image,
			PartyLeaderUID:    item.PartyLeaderUID,
			PartyLeaderName:   item.PartyLeaderName,
		})
	}

	logger.Debug("Parsed scan upload",
		"character", scan.CharacterName,
		"gal_x", scan.GalX,
		"gal_y", scan.GalY,
		"objects", len(objects),
	)

	return scan, objects, nil
}

func isXMLMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	switch mediaType {
	case "text/xml", "application/xml":
		return true
	}
	return strings.HasSuffix(mediaType, "+xml")
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func intPtr(s *string) *int {
	if s == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &n
}
