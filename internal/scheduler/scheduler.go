package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/service"
)

// Scheduler runs the birthday dispatch once per day at a fixed
// wall-clock time. The time and timezone come from the startup
// configuration, deliberately not from the mutable database settings:
// this path keeps firing even if an operator breaks the settings rows,
// while the externally-triggered endpoint follows the database.
type Scheduler struct {
	dispatch *service.DispatchService
	cron     *cron.Cron
	sendTime string
	timezone string
	log      *logger.Logger
}

// New creates a new Scheduler
func New(dispatch *service.DispatchService, cfg config.CronConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		dispatch: dispatch,
		sendTime: cfg.SendTime,
		timezone: cfg.Timezone,
		log:      log.WithComponent("scheduler"),
	}
}

// Start registers the daily entry and starts the cron runner. Setup
// failures are logged and swallowed so a bad schedule never takes the
// process down with it.
func (s *Scheduler) Start() {
	entry, err := s.setup()
	if err != nil {
		s.log.Error().Err(err).
			Str("send_time", s.sendTime).
			Str("timezone", s.timezone).
			Msg("failed to set up internal scheduler, continuing without it")
		return
	}

	s.cron.Start()
	s.log.Info().
		Str("send_time", s.sendTime).
		Str("timezone", s.timezone).
		Time("next_run", s.cron.Entry(entry).Next).
		Msg("internal scheduler started")
}

func (s *Scheduler) setup() (cron.EntryID, error) {
	scheduled, err := time.Parse("15:04", s.sendTime)
	if err != nil {
		return 0, fmt.Errorf("invalid send time %q: %w", s.sendTime, err)
	}

	zone, err := time.LoadLocation(s.timezone)
	if err != nil {
		return 0, fmt.Errorf("invalid timezone %q: %w", s.timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(zone))
	spec := fmt.Sprintf("%d %d * * *", scheduled.Minute(), scheduled.Hour())
	entry, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return 0, fmt.Errorf("failed to add cron entry %q: %w", spec, err)
	}
	return entry, nil
}

// run executes one scheduled dispatch. The timer fires once per day by
// construction, so no tolerance window applies here.
func (s *Scheduler) run() {
	s.log.Info().Msg("running scheduled birthday dispatch")

	summary, err := s.dispatch.Run(context.Background(), time.Time{})
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled birthday dispatch failed")
		return
	}

	s.log.DispatchSummary("internal-scheduler", summary.Attempted, summary.Sent, summary.Failed)
}

// Stop stops the cron runner and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("internal scheduler stopped")
}
