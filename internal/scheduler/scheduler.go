package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/whatsapp"
)

// Reporter produces the scheduled reports.
type Reporter interface {
	WeeklySummary(ctx context.Context, now time.Time) (string, error)
	PublishMonth(ctx context.Context, month time.Time) (bool, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reporter     Reporter
	messagingSvc whatsapp.MessagingService
	cfg          config.Config
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. messagingSvc may be nil when
// WhatsApp delivery is disabled.
func NewScheduler(cfg config.Config, reporter Reporter, messagingSvc whatsapp.MessagingService, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	// Standard 5-field cron expressions, evaluated in the shop's time zone.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:         c,
		reporter:     reporter,
		messagingSvc: messagingSvc,
		cfg:          cfg,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// Start registers the enabled jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.WhatsApp.Enabled() && s.messagingSvc != nil {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendWeeklyReport); err != nil {
			return fmt.Errorf("schedule weekly report %q: %w", s.cfg.Reporting.CronSchedule, err)
		}
		s.logger.Info("weekly report scheduled", zap.String("schedule", s.cfg.Reporting.CronSchedule))
	}

	if s.cfg.Sheets.Enabled() {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.ExportCronSchedule, s.exportLastMonth); err != nil {
			return fmt.Errorf("schedule monthly export %q: %w", s.cfg.Reporting.ExportCronSchedule, err)
		}
		s.logger.Info("monthly export scheduled", zap.String("schedule", s.cfg.Reporting.ExportCronSchedule))
	}

	s.cron.Start()
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reporter.WeeklySummary(ctx, s.now().In(s.loc))
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.ReportRecipient,
		Message: report,
	}

	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
	} else {
		s.logger.Info("weekly report sent successfully")
	}
}

func (s *Scheduler) exportLastMonth() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	month := s.now().In(s.loc).AddDate(0, -1, 0)
	written, err := s.reporter.PublishMonth(ctx, month)
	if err != nil {
		s.logger.Error("failed to export monthly report", zap.Error(err))
		return
	}
	s.logger.Info("monthly export finished", zap.String("month", month.Format("2006-01")), zap.Bool("written", written))
}
