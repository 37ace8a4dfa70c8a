package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/domain/models"
	"github.com/mamadbah2/remitos/internal/service/ledger"
	"github.com/mamadbah2/remitos/pkg/clients/blobstore"
)

const (
	warnExtractionFailed = "no se pudieron leer los datos del remito; completalos a mano"
	warnEncodingFailed   = "no se pudo comprimir la foto; el remito se registra sin imagen"
	isoDateLayout        = "2006-01-02"
)

// ErrNoLedgerHandle rejects a submission for a driver without an assigned ledger.
var ErrNoLedgerHandle = errors.New("el conductor no tiene una planilla asignada")

// ValidationError reports a confirmation the driver must correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalizer recompresses captured photos.
type Normalizer interface {
	NormalizeBytes(data []byte, contentType string) ([]byte, error)
}

// FieldExtractor turns a photo into a best-effort receipt record.
type FieldExtractor interface {
	Extract(ctx context.Context, image []byte, contentType string) (models.ReceiptRecord, error)
}

// Uploader stores a photo and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// LedgerWriter appends a confirmed receipt to a ledger.
type LedgerWriter interface {
	Append(ctx context.Context, handle string, record models.ReceiptRecord) (models.LedgerRow, error)
}

// BackupStore keeps the local copy of submitted receipts.
type BackupStore interface {
	SaveRemito(ctx context.Context, backup models.RemitoBackup) error
}

// Notifier tells the driver their receipt was recorded.
type Notifier interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Orchestrator sequences capture, extraction, upload and ledger append for one receipt.
type Orchestrator struct {
	normalizer Normalizer
	extractor  FieldExtractor
	uploader   Uploader
	writer     LedgerWriter
	backup     BackupStore
	notifier   Notifier
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes optional collaborators.
type Option func(*Orchestrator)

// WithBackup enables the local backup record after each append.
func WithBackup(store BackupStore) Option {
	return func(o *Orchestrator) { o.backup = store }
}

// WithNotifier enables the driver confirmation message.
func WithNotifier(notifier Notifier) Option {
	return func(o *Orchestrator) { o.notifier = notifier }
}

// WithLocation sets the timezone of the capture day.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		if loc != nil {
			o.location = loc
		}
	}
}

// NewOrchestrator wires the submission pipeline.
func NewOrchestrator(normalizer Normalizer, extractor FieldExtractor, uploader Uploader, writer LedgerWriter, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		normalizer: normalizer,
		extractor:  extractor,
		uploader:   uploader,
		writer:     writer,
		location:   time.UTC,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Capture starts a submission from a photo. The photo is normalized and sent through the
// field extractor; neither step can fail the submission. Without a photo the submission
// stays Captured and goes straight to manual entry.
func (o *Orchestrator) Capture(ctx context.Context, driverID string, image []byte, contentType string) *Submission {
	sub := o.Attach(driverID, image, contentType)
	switch {
	case len(image) == 0:
	case len(sub.Image) > 0:
		o.extract(ctx, sub, sub.Image, sub.ContentType)
	default:
		o.extract(ctx, sub, image, contentType)
	}
	return sub
}

func (o *Orchestrator) extract(ctx context.Context, sub *Submission, image []byte, contentType string) {
	record, err := o.extractor.Extract(ctx, image, contentType)
	if err != nil {
		o.logger.Warn("extraction failed, falling back to manual entry",
			zap.String("submission_id", sub.ID), zap.Error(err))
		sub.transition(StateExtractionFailed)
		sub.warn(warnExtractionFailed)
		record = models.ReceiptRecord{}
	}
	sub.Record = record
	sub.transition(StateExtracted)
}

// Confirm applies the driver's reviewed fields and freezes the record.
func (o *Orchestrator) Confirm(sub *Submission, c Confirmation) error {
	if sub.State != StateCaptured && sub.State != StateExtracted {
		return fmt.Errorf("cannot confirm submission in state %s", sub.State)
	}

	destination, err := models.ParseDestination(c.Destination)
	if err != nil {
		return &ValidationError{Field: "destination", Message: "destino inválido"}
	}

	date := strings.TrimSpace(c.Date)
	if date == "" {
		date = sub.CapturedAt.Format(isoDateLayout)
	}

	sub.Record = models.ReceiptRecord{
		RemitoNumber:     strings.TrimSpace(c.RemitoNumber),
		Date:             ledger.FormatDate(date),
		Destination:      destination,
		DestinationOther: strings.TrimSpace(c.DestinationOther),
		RawExtractedText: sub.Record.RawExtractedText,
		ImageURL:         strings.TrimSpace(c.ImageURL),
	}
	sub.LedgerHandle = strings.TrimSpace(c.LedgerHandle)
	sub.transition(StateConfirmed)
	return nil
}

// Submit uploads the photo (if any) and appends the ledger row. The returned error is
// also recorded as the submission's failure. An uploaded photo is kept when the append fails.
func (o *Orchestrator) Submit(ctx context.Context, sub *Submission) error {
	if sub.State != StateConfirmed {
		return fmt.Errorf("cannot submit submission in state %s", sub.State)
	}

	if ledger.ResolveHandle(sub.LedgerHandle) == "" {
		o.logger.Warn("submission rejected without ledger handle", zap.String("driver_id", sub.DriverID))
		return sub.fail(ErrNoLedgerHandle)
	}

	if len(sub.Image) > 0 && sub.Record.ImageURL == "" {
		sub.transition(StateUploading)
		objectPath := blobstore.ObjectPath(sub.DriverID, sub.CapturedAt)
		url, err := o.uploader.Upload(ctx, objectPath, sub.Image, sub.ContentType)
		if err != nil {
			var serr *blobstore.StorageError
			if !errors.As(err, &serr) {
				err = &blobstore.StorageError{Path: objectPath, Err: err}
			}
			o.logger.Error("image upload failed", zap.String("submission_id", sub.ID), zap.Error(err))
			return sub.fail(err)
		}
		sub.Record.ImageURL = url
		sub.transition(StateUploaded)
	}

	sub.transition(StateAppending)
	row, err := o.writer.Append(ctx, sub.LedgerHandle, sub.Record)
	if err != nil {
		o.logger.Error("ledger append failed",
			zap.String("submission_id", sub.ID),
			zap.String("kind", string(ledger.KindOf(err))),
			zap.String("image_url", sub.Record.ImageURL),
			zap.Error(err))
		return sub.fail(err)
	}
	sub.Row = row
	sub.transition(StateAppended)

	o.saveBackup(ctx, sub)
	o.notify(ctx, sub)
	return nil
}

func (o *Orchestrator) saveBackup(ctx context.Context, sub *Submission) {
	if o.backup == nil {
		return
	}
	backup := models.RemitoBackup{
		DriverID:     sub.DriverID,
		SheetID:      ledger.ResolveHandle(sub.LedgerHandle),
		RemitoNumber: sub.Record.RemitoNumber,
		Date:         sub.Record.Date,
		Destination:  sub.Record.DestinationLabel(),
		ImageURL:     sub.Record.ImageURL,
		RawText:      sub.Record.RawExtractedText,
		CreatedAt:    o.now().UTC(),
	}
	if err := o.backup.SaveRemito(ctx, backup); err != nil {
		o.logger.Warn("remito backup failed", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}

func (o *Orchestrator) notify(ctx context.Context, sub *Submission) {
	if o.notifier == nil || sub.DriverPhone == "" {
		return
	}
	if _, err := o.notifier.SendText(ctx, sub.DriverPhone, ConfirmationMessage(sub.Record)); err != nil {
		o.logger.Warn("driver notification failed", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}

// ConfirmationMessage is the text sent to a driver once the row is in the ledger.
func ConfirmationMessage(record models.ReceiptRecord) string {
	number := record.RemitoNumber
	if number == "" {
		number = "sin número"
	}
	msg := fmt.Sprintf("✅ Remito %s registrado\nFecha: %s\nDestino: %s", number, record.Date, record.DestinationLabel())
	if record.ImageURL != "" {
		msg += "\nFoto: " + record.ImageURL
	}
	return msg
}

// Attach starts a submission from an already confirmed photo, normalizing it for upload
// without running the extractor. An encoding failure only drops the photo.
func (o *Orchestrator) Attach(driverID string, image []byte, contentType string) *Submission {
	sub := &Submission{
		ID:         uuid.NewString(),
		DriverID:   driverID,
		CapturedAt: o.now().In(o.location),
	}
	sub.transition(StateCaptured)

	if len(image) == 0 {
		return sub
	}

	normalized, err := o.normalizer.NormalizeBytes(image, contentType)
	if err != nil {
		o.logger.Warn("image normalization failed, upload will be skipped",
			zap.String("submission_id", sub.ID), zap.Error(err))
		sub.warn(warnEncodingFailed)
		return sub
	}
	sub.Image = normalized
	sub.ContentType = "image/jpeg"
	return sub
}
