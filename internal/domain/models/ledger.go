package models

// LedgerRow is one appended ledger line. Column order is part of the wire contract
// with the remote sheet: the stats reader depends on the first three positions.
type LedgerRow struct {
	Timestamp    string
	RemitoNumber string
	Date         string
	Destination  string
	ImageURL     string
}

// Values returns the row as the ordered cell values sent to the sheet.
func (r LedgerRow) Values() []interface{} {
	return []interface{}{r.Timestamp, r.RemitoNumber, r.Date, r.Destination, r.ImageURL}
}
