package models

import "time"

// StatsSnapshot is derived on every request from the current month's ledger rows.
type StatsSnapshot struct {
	TotalTrips    int     `json:"totalTrips" bson:"total_trips"`
	AveragePerDay float64 `json:"averagePerDay" bson:"average_per_day"`
}

// LedgerRef pairs a driver identifier with its (possibly empty) ledger handle.
type LedgerRef struct {
	ID           string `json:"id" binding:"required"`
	LedgerHandle string `json:"ledgerHandle"`
}

// DriverStats is one entry of a stats fetch.
type DriverStats struct {
	ID    string        `json:"id"`
	Stats StatsSnapshot `json:"stats"`
}

// StatsReport represents a stored monthly digest entry for one driver.
type StatsReport struct {
	DriverID  string        `bson:"driver_id" json:"driver_id"`
	Email     string        `bson:"email" json:"email"`
	SheetID   string        `bson:"sheet_id" json:"sheet_id"`
	Year      int           `bson:"year" json:"year"`
	Month     int           `bson:"month" json:"month"`
	Stats     StatsSnapshot `bson:"stats" json:"stats"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}
