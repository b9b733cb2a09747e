// ABOUTME: Cron-driven sweep of expired mailbox messages
// ABOUTME: Standard 5-field cron expressions; sweep errors are logged, not fatal

package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field cron (minute hour day month weekday).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a sweep schedule expression.
func ValidateSchedule(expr string) error {
	_, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", expr, err)
	}
	return nil
}

// Sweeper runs SweepExpired on a cron schedule, bounding storage growth from
// abandoned sessions.
type Sweeper struct {
	mailbox *Mailbox
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewSweeper creates a sweeper for the given schedule. The schedule must
// already be validated.
func NewSweeper(m *Mailbox, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		mailbox: m,
		cron:    cron.New(cron.WithParser(cronParser)),
		logger:  logger.With("component", "sweeper"),
	}

	_, err := s.cron.AddFunc(schedule, s.sweep)
	if err != nil {
		return nil, fmt.Errorf("scheduling sweep: %w", err)
	}
	return s, nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.mailbox.SweepExpired(ctx); err != nil {
		s.logger.Error("sweep failed", "error", err)
	}
}

// Start begins running sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("mailbox sweeper started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("mailbox sweeper stopped")
}
