package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/notifier"
	"TradeTerminal/internal/recorder"
	"TradeTerminal/internal/scanner"
	"TradeTerminal/internal/tradecal"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Publisher receives every refreshed snapshot.
type Publisher interface {
	Publish(snap *collector.Snapshot)
}

// Scheduler manages all cron tasks. With SkipClosedDays set, scheduled jobs
// do nothing on days the exchange calendar has no session.
type Scheduler struct {
	Cron           *cron.Cron
	Collector      *collector.Collector
	Notifier       Sender
	Publisher      Publisher
	Recorder       recorder.Recorder
	Calendar       *tradecal.Calendar
	SkipClosedDays bool
	Ctx            context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler. tn and pub may be nil.
func NewScheduler(ctx context.Context, col *collector.Collector, tn Sender, pub Publisher, rec recorder.Recorder, cal *tradecal.Calendar) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  tn,
		Publisher: pub,
		Recorder:  rec,
		Calendar:  cal,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the refresh task and, when a notifier is set, the digest task.
func (s *Scheduler) RegisterAll(refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if s.Notifier == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("scheduler stopped")
}

// RefreshNow builds, publishes and records a snapshot immediately, ignoring
// the market calendar.
func (s *Scheduler) RefreshNow() (*collector.Snapshot, error) {
	return s.refresh()
}

func (s *Scheduler) marketClosed() bool {
	if !s.SkipClosedDays || s.Calendar == nil {
		return false
	}
	return !s.Calendar.IsTradingDay(s.now())
}

func (s *Scheduler) refreshTask() {
	if s.marketClosed() {
		logger.Debug("market closed, skipping refresh", zap.String("mic", s.Calendar.MIC))
		return
	}
	if _, err := s.refresh(); err != nil {
		logger.Error("refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) refresh() (*collector.Snapshot, error) {
	snap, err := s.Collector.Build(s.Ctx, collector.Params{})
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	if s.Publisher != nil {
		s.Publisher.Publish(snap)
	}
	if err := s.Recorder.RecordScan(&recorder.ScanRecord{
		ID:            snap.ID,
		Timestamp:     snap.GeneratedAt,
		Range:         snap.Params.Range,
		Provider:      s.Collector.Fetcher.Name(),
		ProviderError: snap.ProviderError,
		Rows:          snap.Scanner,
		Skipped:       len(snap.Skipped),
	}); err != nil {
		logger.Error("record scan failed", zap.Error(err))
	}
	logger.Info("snapshot refreshed",
		zap.String("id", snap.ID),
		zap.Int("rows", len(snap.Scanner)),
		zap.Int("skipped", len(snap.Skipped)))
	return snap, nil
}

func (s *Scheduler) digestTask() {
	if s.marketClosed() {
		logger.Debug("market closed, skipping digest")
		return
	}
	s.trySend(s.digest(s.Ctx))
}

// digest renders the scanner grouped by sector in catalog order, plus macro vitals.
func (s *Scheduler) digest(ctx context.Context) string {
	period := s.Collector.Defaults.Range
	results, err := s.Collector.Scanner(ctx, period)
	if err != nil {
		return notifier.FormatError("market scanner", err)
	}
	rows := scanner.Rows(results)
	msg := notifier.FormatScannerDigest(rows, len(scanner.Skipped(results)), s.now())

	ticks, err := s.Collector.Macro(ctx, period)
	if err != nil {
		logger.Warn("macro fetch failed", zap.Error(err))
		return msg
	}
	if m := notifier.FormatMacro(ticks); m != "" {
		msg += "\n" + m
	}
	return msg
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	arg := strings.Join(fields[1:], " ")

	switch cmd {
	case "/scan":
		return s.digest(ctx)
	case "/quote":
		if arg == "" {
			return "Usage: /quote &lt;instrument&gt;"
		}
		q, err := s.Collector.Quote(ctx, arg)
		if errors.Is(err, collector.ErrUnknownInstrument) {
			return fmt.Sprintf("Unknown instrument: %s", html.EscapeString(arg))
		}
		if err != nil {
			return notifier.FormatError("quote "+arg, err)
		}
		return notifier.FormatQuote(q.Entry.Instrument.Name, q.Entry.Instrument.Symbol, q.Change, q.MA, q.MAPeriod)
	case "/sourcing":
		if arg == "" {
			return "Usage: /sourcing &lt;instrument&gt;"
		}
		entry, ok := s.Collector.Catalog.Find(arg)
		if !ok {
			return fmt.Sprintf("Unknown instrument: %s", html.EscapeString(arg))
		}
		return notifier.FormatSourcing(s.Collector.Catalog.Sourcing(entry.Instrument.Name))
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logger.Error("send notification failed", zap.Error(err))
	}
}
