package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/domain/models"
)

var (
	datePattern   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	remitoPattern = regexp.MustCompile(`(?i)(?:\bremito|\bn[°º]|\bnro\b|\bno\b)\.?\s*[:#.]?\s*(\d+\s*[-\s]\s*\d+)`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// TextSource turns a photo into unstructured recognized text.
type TextSource interface {
	Recognize(ctx context.Context, image []byte, contentType, language string) (string, error)
}

// Error reports a fatal failure of the OCR text source. Callers degrade to manual entry.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extractor runs OCR and the field heuristics.
type Extractor struct {
	source   TextSource
	language string
	logger   *zap.Logger
}

// NewExtractor wires an extractor around an OCR text source.
func NewExtractor(source TextSource, language string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{source: source, language: language, logger: logger}
}

// Extract recognizes the image and parses the receipt fields out of the text.
// Only a failing text source produces an error; missing fields are left empty.
func (e *Extractor) Extract(ctx context.Context, image []byte, contentType string) (models.ReceiptRecord, error) {
	if e.source == nil {
		return models.ReceiptRecord{}, &Error{Err: fmt.Errorf("no OCR engine configured")}
	}

	text, err := e.source.Recognize(ctx, image, contentType, e.language)
	if err != nil {
		e.logger.Warn("ocr failed", zap.Error(err))
		return models.ReceiptRecord{}, &Error{Err: err}
	}

	record := ParseText(text)
	e.logger.Debug("fields extracted",
		zap.String("remito", record.RemitoNumber),
		zap.String("date", record.Date),
		zap.Int("text_length", len(text)))
	return record, nil
}

// ParseText applies each field heuristic independently to recognized text.
// Destination is never derived from text.
func ParseText(text string) models.ReceiptRecord {
	return models.ReceiptRecord{
		RemitoNumber:     extractRemitoNumber(text),
		Date:             extractDate(text),
		RawExtractedText: text,
	}
}

func extractDate(text string) string {
	return datePattern.FindString(text)
}

func extractRemitoNumber(text string) string {
	m := remitoPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return spacePattern.ReplaceAllString(strings.TrimSpace(m[1]), "")
}
