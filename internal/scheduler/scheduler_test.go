package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
)

type fakeReporter struct {
	summary   string
	err       error
	published []time.Time
}

func (f *fakeReporter) WeeklySummary(context.Context, time.Time) (string, error) {
	return f.summary, f.err
}

func (f *fakeReporter) PublishMonth(_ context.Context, month time.Time) (bool, error) {
	f.published = append(f.published, month)
	return true, nil
}

type fakeMessenger struct {
	sent []models.OutboundMessageRequest
}

func (f *fakeMessenger) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		WhatsApp: config.WhatsAppConfig{AccessToken: "token", ReportRecipient: "5511999999999"},
		Sheets:   config.SheetsConfig{SpreadsheetID: "sheet"},
		Reporting: config.ReportingConfig{
			CronSchedule:       "0 20 * * 5",
			ExportCronSchedule: "0 6 1 * *",
		},
	}
}

func TestScheduler_Start(t *testing.T) {
	t.Run("registers enabled jobs", func(t *testing.T) {
		s := NewScheduler(testConfig(), &fakeReporter{}, &fakeMessenger{}, time.UTC, nil)
		require.NoError(t, s.Start())
		defer s.Stop()
		assert.Equal(t, 2, s.Jobs())
	})

	t.Run("skips disabled integrations", func(t *testing.T) {
		cfg := testConfig()
		cfg.WhatsApp = config.WhatsAppConfig{}
		cfg.Sheets = config.SheetsConfig{}

		s := NewScheduler(cfg, &fakeReporter{}, nil, time.UTC, nil)
		require.NoError(t, s.Start())
		defer s.Stop()
		assert.Zero(t, s.Jobs())
	})

	t.Run("rejects invalid schedules", func(t *testing.T) {
		cfg := testConfig()
		cfg.Reporting.CronSchedule = "every friday"

		s := NewScheduler(cfg, &fakeReporter{}, &fakeMessenger{}, time.UTC, nil)
		assert.Error(t, s.Start())
	})
}

func TestScheduler_Jobs(t *testing.T) {
	fixed := time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)

	t.Run("weekly report goes to the recipient", func(t *testing.T) {
		reporter := &fakeReporter{summary: "Resumo semanal"}
		messenger := &fakeMessenger{}
		s := NewScheduler(testConfig(), reporter, messenger, time.UTC, nil)
		s.now = func() time.Time { return fixed }

		s.sendWeeklyReport()
		require.Len(t, messenger.sent, 1)
		assert.Equal(t, "5511999999999", messenger.sent[0].To)
		assert.Equal(t, "Resumo semanal", messenger.sent[0].Message)
	})

	t.Run("failed summary sends nothing", func(t *testing.T) {
		messenger := &fakeMessenger{}
		s := NewScheduler(testConfig(), &fakeReporter{err: errors.New("boom")}, messenger, time.UTC, nil)

		s.sendWeeklyReport()
		assert.Empty(t, messenger.sent)
	})

	t.Run("monthly export targets the previous month", func(t *testing.T) {
		reporter := &fakeReporter{}
		s := NewScheduler(testConfig(), reporter, nil, time.UTC, nil)
		s.now = func() time.Time { return fixed }

		s.exportLastMonth()
		require.Len(t, reporter.published, 1)
		assert.Equal(t, time.February, reporter.published[0].Month())
		assert.Equal(t, 2026, reporter.published[0].Year())
	})
}
