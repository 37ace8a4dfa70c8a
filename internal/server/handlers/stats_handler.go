package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/domain/models"
)

// StatsFetcher computes monthly snapshots for a batch of ledgers.
type StatsFetcher interface {
	FetchStats(ctx context.Context, refs []models.LedgerRef) []models.DriverStats
}

// StatsHandler serves the driver and admin dashboards.
type StatsHandler struct {
	stats     StatsFetcher
	directory Directory
	logger    *zap.Logger
}

// NewStatsHandler constructs the stats handler.
func NewStatsHandler(stats StatsFetcher, directory Directory, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{stats: stats, directory: directory, logger: logger}
}

// Fetch returns a snapshot per requested ledger. Read failures show up as zeros.
func (h *StatsHandler) Fetch(c *gin.Context) {
	var refs []models.LedgerRef
	if err := c.ShouldBindJSON(&refs); err != nil {
		h.logger.Warn("invalid stats payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: kindValidation})
		return
	}

	c.JSON(http.StatusOK, h.stats.FetchStats(c.Request.Context(), refs))
}

// Overview lists every directory driver with this month's stats.
func (h *StatsHandler) Overview(c *gin.Context) {
	if h.directory == nil {
		c.JSON(http.StatusOK, []models.DriverOverview{})
		return
	}

	ctx := c.Request.Context()
	drivers, err := h.directory.ListDrivers(ctx)
	if err != nil {
		h.logger.Error("failed listing drivers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to list drivers", Kind: kindInternal})
		return
	}

	refs := make([]models.LedgerRef, len(drivers))
	for i, d := range drivers {
		refs[i] = models.LedgerRef{ID: d.ID, LedgerHandle: d.SheetID}
	}
	stats := h.stats.FetchStats(ctx, refs)

	overview := make([]models.DriverOverview, len(drivers))
	for i, d := range drivers {
		overview[i] = models.DriverOverview{Driver: d, Stats: stats[i].Stats}
	}
	c.JSON(http.StatusOK, overview)
}
