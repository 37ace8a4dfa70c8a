package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/remitos/internal/config"
	"github.com/mamadbah2/remitos/internal/domain/models"
)

// DriverDirectory lists the drivers included in the digest.
type DriverDirectory interface {
	ListDrivers(ctx context.Context) ([]models.Driver, error)
}

// StatsFetcher computes snapshots for many ledgers at once.
type StatsFetcher interface {
	FetchStats(ctx context.Context, refs []models.LedgerRef) []models.DriverStats
}

// SnapshotStore persists one digest entry per driver and month.
type SnapshotStore interface {
	SaveStatsSnapshot(ctx context.Context, report models.StatsReport) error
}

// Notifier delivers the digest summary.
type Notifier interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	directory DriverDirectory
	stats     StatsFetcher
	store     SnapshotStore
	notifier  Notifier
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. A nil notifier disables the summary message.
func NewScheduler(cfg config.ReportingConfig, directory DriverDirectory, stats StatsFetcher, store SnapshotStore, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("invalid reporting timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		directory: directory,
		stats:     stats,
		store:     store,
		notifier:  notifier,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runScheduledDigest); err != nil {
		return fmt.Errorf("schedule monthly digest: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduledDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.RunDigest(ctx); err != nil {
		s.logger.Error("monthly digest failed", zap.Error(err))
	}
}

// RunDigest snapshots this month's stats for every directory driver and sends the
// summary to the admin when configured. Per-driver store failures are logged and skipped.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	now := s.now().In(s.location)
	s.logger.Info("generating monthly digest", zap.String("month", now.Format("2006-01")))

	drivers, err := s.directory.ListDrivers(ctx)
	if err != nil {
		return fmt.Errorf("list drivers: %w", err)
	}

	refs := make([]models.LedgerRef, len(drivers))
	for i, d := range drivers {
		refs[i] = models.LedgerRef{ID: d.ID, LedgerHandle: d.SheetID}
	}
	results := s.stats.FetchStats(ctx, refs)

	reports := make([]models.StatsReport, len(drivers))
	for i, d := range drivers {
		reports[i] = models.StatsReport{
			DriverID:  d.ID,
			Email:     d.Email,
			SheetID:   d.SheetID,
			Year:      now.Year(),
			Month:     int(now.Month()),
			Stats:     results[i].Stats,
			CreatedAt: now.UTC(),
		}
		if err := s.store.SaveStatsSnapshot(ctx, reports[i]); err != nil {
			s.logger.Error("failed to save stats snapshot", zap.String("driver_id", d.ID), zap.Error(err))
		}
	}

	if s.notifier == nil || s.cfg.AdminPhone == "" {
		return nil
	}

	if _, err := s.notifier.SendText(ctx, s.cfg.AdminPhone, DigestMessage(now, reports)); err != nil {
		s.logger.Error("failed to send monthly digest", zap.Error(err))
	} else {
		s.logger.Info("monthly digest sent", zap.Int("drivers", len(reports)))
	}
	return nil
}

// DigestMessage renders the admin summary.
func DigestMessage(at time.Time, reports []models.StatsReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Remitos %s\n", at.Format("01/2006"))

	if len(reports) == 0 {
		b.WriteString("Sin conductores registrados.")
		return b.String()
	}

	total := 0
	for _, r := range reports {
		name := r.Email
		if name == "" {
			name = r.DriverID
		}
		if r.SheetID == "" {
			fmt.Fprintf(&b, "• %s: sin planilla\n", name)
			continue
		}
		total += r.Stats.TotalTrips
		fmt.Fprintf(&b, "• %s: %d viajes (%.1f/día)\n", name, r.Stats.TotalTrips, r.Stats.AveragePerDay)
	}
	fmt.Fprintf(&b, "Total: %d viajes", total)
	return b.String()
}
