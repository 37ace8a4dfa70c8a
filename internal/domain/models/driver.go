package models

// Driver is a directory entry assigned by the identity provider.
type Driver struct {
	ID      string `bson:"_id" json:"id"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	SheetID string `bson:"google_sheet_id,omitempty" json:"google_sheet_id"`
}

// DriverOverview is the admin dashboard row.
type DriverOverview struct {
	Driver
	Stats StatsSnapshot `json:"stats"`
}
