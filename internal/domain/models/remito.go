package models

import (
	"fmt"
	"strings"
	"time"
)

// Destination enumerates the plants a remito can be delivered to.
type Destination string

const (
	DestinationVarela     Destination = "Varela"
	DestinationHaedo      Destination = "Haedo"
	DestinationFerrosider Destination = "Ferrosider"
	DestinationCaning     Destination = "Caning"
	DestinationSiat       Destination = "Siat"
	DestinationBobina     Destination = "Bobina"
	DestinationChapa      Destination = "Chapa"
	DestinationOtros      Destination = "Otros"
)

// Destinations lists the selectable destinations in display order.
var Destinations = []Destination{
	DestinationVarela,
	DestinationHaedo,
	DestinationFerrosider,
	DestinationCaning,
	DestinationSiat,
	DestinationBobina,
	DestinationChapa,
	DestinationOtros,
}

// ParseDestination matches a driver-chosen destination case-insensitively.
func ParseDestination(value string) (Destination, error) {
	trimmed := strings.TrimSpace(value)
	for _, d := range Destinations {
		if strings.EqualFold(trimmed, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown destination %q", value)
}

// ReceiptRecord is the structured representation of one physical delivery receipt.
type ReceiptRecord struct {
	RemitoNumber     string      `json:"remitoNumber"`
	Date             string      `json:"date"`
	Destination      Destination `json:"destination"`
	DestinationOther string      `json:"destinationOther,omitempty"`
	RawExtractedText string      `json:"-"`
	ImageURL         string      `json:"imageUrl,omitempty"`
}

// DestinationLabel is the value written to the ledger's destination column.
func (r ReceiptRecord) DestinationLabel() string {
	if r.Destination == DestinationOtros {
		if other := strings.TrimSpace(r.DestinationOther); other != "" {
			return other
		}
	}
	return string(r.Destination)
}

// RemitoBackup is the local copy of a submitted receipt kept in MongoDB.
type RemitoBackup struct {
	DriverID     string    `bson:"driver_id" json:"driver_id"`
	SheetID      string    `bson:"sheet_id" json:"sheet_id"`
	RemitoNumber string    `bson:"remito_number" json:"remito_number"`
	Date         string    `bson:"date" json:"date"`
	Destination  string    `bson:"destination" json:"destination"`
	ImageURL     string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	RawText      string    `bson:"raw_text,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
