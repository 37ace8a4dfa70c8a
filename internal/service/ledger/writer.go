package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/domain/models"
	"github.com/mamadbah2/remitos/internal/repository/sheets"
)

const (
	// TimestampLayout renders the first ledger column.
	TimestampLayout = "02/01/2006 15:04:05"
	// DateLayout renders the third ledger column.
	DateLayout = "02/01/2006"
	isoDateLayout = "2006-01-02"
)

// Writer appends confirmed receipts to a driver's ledger. It never updates or deletes rows
// and never retries: a failed append is retried only by resubmitting.
type Writer struct {
	repo      sheets.Repository
	sheetName string
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewWriter wires a ledger writer. A nil repository means the ledger credential is absent,
// and every append fails with KindMisconfigured.
func NewWriter(repository sheets.Repository, sheetName string, location *time.Location, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Writer{
		repo:      repository,
		sheetName: sheetName,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// AppendRange is the A1 range rows are appended to.
func (w *Writer) AppendRange() string {
	return fmt.Sprintf("'%s'!A:E", w.sheetName)
}

// Append writes one row for the record. The record's date must already be in DateLayout.
func (w *Writer) Append(ctx context.Context, handle string, record models.ReceiptRecord) (models.LedgerRow, error) {
	if w.repo == nil {
		return models.LedgerRow{}, &Error{Kind: KindMisconfigured, SheetName: w.sheetName, Err: sheets.ErrMissingCredentials}
	}

	id := ResolveHandle(handle)
	if id == "" {
		return models.LedgerRow{}, &Error{Kind: KindNotFound, SheetName: w.sheetName, Err: fmt.Errorf("empty ledger handle")}
	}

	row := models.LedgerRow{
		Timestamp:    w.now().In(w.location).Format(TimestampLayout),
		RemitoNumber: record.RemitoNumber,
		Date:         record.Date,
		Destination:  record.DestinationLabel(),
		ImageURL:     record.ImageURL,
	}

	if err := w.repo.AppendRow(ctx, id, w.AppendRange(), row.Values()); err != nil {
		lerr := classify(err, w.sheetName)
		w.logger.Warn("ledger append failed",
			zap.String("spreadsheet_id", id),
			zap.String("kind", string(lerr.Kind)),
			zap.Error(err))
		return models.LedgerRow{}, lerr
	}

	w.logger.Info("ledger row appended",
		zap.String("spreadsheet_id", id),
		zap.String("remito", row.RemitoNumber))
	return row, nil
}

// FormatDate converts an ISO calendar date into the ledger's display convention.
// Values that are not ISO dates are passed through unchanged.
func FormatDate(value string) string {
	parsed, err := time.Parse(isoDateLayout, value)
	if err != nil {
		return value
	}
	return parsed.Format(DateLayout)
}
