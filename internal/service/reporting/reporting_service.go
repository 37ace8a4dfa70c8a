package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/remitos/internal/domain/models"
	repo "github.com/mamadbah2/remitos/internal/repository/sheets"
	"github.com/mamadbah2/remitos/internal/service/ledger"
)

const (
	dayLayout       = "2006-01-02"
	maxParallelRead = 8
)

// timestampLayouts are the renderings column A can come back in: the layout we write,
// the sheet's own locale rendering after USER_ENTERED parsing, and ISO timestamps.
var timestampLayouts = []string{
	ledger.TimestampLayout,
	"2/1/2006 15:04:05",
	"2/1/2006, 15:04:05",
	"2/1/2006 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// Service computes productivity statistics from driver ledgers.
type Service struct {
	repo      repo.Repository
	sheetName string
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance. A nil repository yields zero snapshots.
func NewService(repository repo.Repository, sheetName string, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repo:      repository,
		sheetName: sheetName,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// MonthlyStats scans a ledger and summarizes the current month. Read failures are
// absorbed into the zero snapshot.
func (s *Service) MonthlyStats(ctx context.Context, handle string) models.StatsSnapshot {
	id := ledger.ResolveHandle(handle)
	if id == "" || s.repo == nil {
		return models.StatsSnapshot{}
	}

	rows, err := s.repo.ReadRange(ctx, id, fmt.Sprintf("'%s'!A:C", s.sheetName))
	if err != nil {
		s.logger.Warn("stats read failed, reporting zeros", zap.String("spreadsheet_id", id), zap.Error(err))
		return models.StatsSnapshot{}
	}

	return s.summarize(rows, s.now().In(s.location))
}

// FetchStats computes a snapshot per entry. Entries without a handle get the zero
// snapshot without a remote read. Output order follows input order.
func (s *Service) FetchStats(ctx context.Context, refs []models.LedgerRef) []models.DriverStats {
	results := make([]models.DriverStats, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRead)

	for i, ref := range refs {
		results[i] = models.DriverStats{ID: ref.ID}
		if strings.TrimSpace(ref.LedgerHandle) == "" {
			continue
		}
		g.Go(func() error {
			results[i].Stats = s.MonthlyStats(gctx, ref.LedgerHandle)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (s *Service) summarize(rows [][]interface{}, now time.Time) models.StatsSnapshot {
	var totalTrips int
	activeDays := make(map[string]struct{})

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		ts, err := s.parseTimestamp(row[0])
		if err != nil {
			s.logger.Debug("skip ledger row with invalid timestamp", zap.Any("value", row[0]), zap.Error(err))
			continue
		}

		if ts.Year() != now.Year() || ts.Month() != now.Month() {
			continue
		}

		totalTrips++
		activeDays[ts.Format(dayLayout)] = struct{}{}
	}

	if totalTrips == 0 {
		return models.StatsSnapshot{}
	}

	days := len(activeDays)
	if days < 1 {
		days = 1
	}

	average := float64(totalTrips) / float64(days)
	return models.StatsSnapshot{
		TotalTrips:    totalTrips,
		AveragePerDay: math.Round(average*10) / 10,
	}
}

func (s *Service) parseTimestamp(value interface{}) (time.Time, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, str, s.location); err == nil {
			return ts.In(s.location), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", str)
}
