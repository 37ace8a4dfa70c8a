package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/domain/models"
	"github.com/mamadbah2/remitos/internal/repository/mongodb"
	"github.com/mamadbah2/remitos/internal/service/submission"
)

// DriverHeader carries the caller identity set by the upstream auth proxy.
const DriverHeader = "X-Driver-ID"

const maxImageBytes = 20 << 20

// Directory resolves driver identities to their directory entry.
type Directory interface {
	FindDriver(ctx context.Context, id string) (models.Driver, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
}

// RemitoHandler exposes receipt capture and submission over HTTP.
type RemitoHandler struct {
	orch      *submission.Orchestrator
	directory Directory
	logger    *zap.Logger
}

// NewRemitoHandler constructs the HTTP handler adapter. A nil directory means every
// submission must carry its own ledger handle.
func NewRemitoHandler(orch *submission.Orchestrator, directory Directory, logger *zap.Logger) *RemitoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemitoHandler{orch: orch, directory: directory, logger: logger}
}

type extractResponse struct {
	RemitoNumber string   `json:"remitoNumber"`
	Date         string   `json:"date"`
	Destination  string   `json:"destination"`
	State        string   `json:"state"`
	Warnings     []string `json:"warnings,omitempty"`
}

type submitRequest struct {
	RemitoNumber     string `json:"remitoNumber" form:"remitoNumber"`
	Date             string `json:"date" form:"date"`
	Destination      string `json:"destination" form:"destination" binding:"required"`
	DestinationOther string `json:"destinationOther" form:"destinationOther"`
	LedgerHandle     string `json:"ledgerHandle" form:"ledgerHandle"`
	ImageURL         string `json:"imageUrl" form:"imageUrl"`
}

type submitResponse struct {
	ID       string   `json:"id"`
	State    string   `json:"state"`
	Row      []string `json:"row"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Extract runs OCR on an uploaded photo and returns the suggested fields. OCR failures
// still answer 200 with empty fields so the driver can type them in.
func (h *RemitoHandler) Extract(c *gin.Context) {
	image, contentType, err := readImage(c)
	if err != nil {
		h.logger.Warn("invalid capture upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: kindValidation})
		return
	}
	if len(image) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "image is required", Kind: kindValidation})
		return
	}

	sub := h.orch.Capture(c.Request.Context(), c.GetHeader(DriverHeader), image, contentType)

	c.JSON(http.StatusOK, extractResponse{
		RemitoNumber: sub.Record.RemitoNumber,
		Date:         isoDate(sub.Record.Date, sub.CapturedAt),
		State:        string(sub.State),
		Warnings:     sub.Warnings,
	})
}

// Submit records a confirmed receipt. Multipart requests may carry the photo, JSON
// requests reference an already uploaded image URL.
func (h *RemitoHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid submission payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: kindValidation})
		return
	}

	image, contentType, err := readImage(c)
	if err != nil {
		h.logger.Warn("invalid submission image", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: kindValidation})
		return
	}

	ctx := c.Request.Context()
	driverID := c.GetHeader(DriverHeader)
	driver := h.lookupDriver(ctx, driverID)

	handle := strings.TrimSpace(req.LedgerHandle)
	if handle == "" {
		handle = driver.SheetID
	}

	sub := h.orch.Attach(driverID, image, contentType)
	sub.DriverPhone = driver.Phone

	if err := h.orch.Confirm(sub, submission.Confirmation{
		RemitoNumber:     req.RemitoNumber,
		Date:             req.Date,
		Destination:      req.Destination,
		DestinationOther: req.DestinationOther,
		LedgerHandle:     handle,
		ImageURL:         req.ImageURL,
	}); err != nil {
		abortWithSubmissionError(c, sub, err)
		return
	}

	if err := h.orch.Submit(ctx, sub); err != nil {
		abortWithSubmissionError(c, sub, err)
		return
	}

	c.JSON(http.StatusCreated, submitResponse{
		ID:       sub.ID,
		State:    string(sub.State),
		Row:      rowStrings(sub.Row),
		ImageURL: sub.Record.ImageURL,
		Warnings: sub.Warnings,
	})
}

func (h *RemitoHandler) lookupDriver(ctx context.Context, id string) models.Driver {
	if h.directory == nil || id == "" {
		return models.Driver{ID: id}
	}
	driver, err := h.directory.FindDriver(ctx, id)
	if err != nil {
		if !errors.Is(err, mongodb.ErrDriverNotFound) {
			h.logger.Warn("driver lookup failed", zap.String("driver_id", id), zap.Error(err))
		}
		return models.Driver{ID: id}
	}
	return driver
}

// readImage returns the optional "image" multipart file. A missing file is not an error.
func readImage(c *gin.Context) ([]byte, string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, "", nil
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if header.Size > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, header.Header.Get("Content-Type"), nil
}

var extractedDateLayouts = []string{"2/1/2006", "2-1-2006", "2/1/06", "2-1-06"}

// isoDate turns an extracted D/M/Y date into the ISO form date inputs expect, falling
// back to the capture day.
func isoDate(extracted string, capturedAt time.Time) string {
	for _, layout := range extractedDateLayouts {
		if t, err := time.Parse(layout, extracted); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return capturedAt.Format("2006-01-02")
}

func rowStrings(row models.LedgerRow) []string {
	values := row.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}
