package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mailer8/mailer8/internal/logger"
)

// toleranceMinutes is how far from the scheduled send time an external
// trigger may arrive and still run. External schedulers fire imprecisely
// and sometimes more than once; the window keeps the endpoint safe to
// call often while running near the intended time. Same-day dedup is
// handled per customer by the dispatch idempotency check.
const toleranceMinutes = 5

// GateResult carries the schedule gate decision and its diagnostics.
type GateResult struct {
	Proceed               bool   `json:"-"`
	CurrentTime           string `json:"currentTime"`
	ScheduledTime         string `json:"scheduledTime"`
	TimeDifferenceMinutes int    `json:"timeDifferenceMinutes"`
	ToleranceMinutes      int    `json:"toleranceMinutes"`
}

// ScheduleGate decides whether an externally-triggered dispatch should
// run now, based on the database-configured send time and timezone.
type ScheduleGate struct {
	settings Settings
	log      *logger.Logger
}

// NewScheduleGate creates a new ScheduleGate
func NewScheduleGate(settings Settings, log *logger.Logger) *ScheduleGate {
	return &ScheduleGate{
		settings: settings,
		log:      log.WithComponent("schedule_gate"),
	}
}

// ShouldRun reports whether now falls within the tolerance window of the
// configured send time, evaluated in the configured timezone. force
// bypasses the window but still returns full diagnostics.
func (g *ScheduleGate) ShouldRun(ctx context.Context, now time.Time, force bool) (*GateResult, error) {
	sendTime := g.settings.SendTime(ctx)
	scheduled, err := time.Parse("15:04", sendTime)
	if err != nil {
		return nil, fmt.Errorf("invalid configured send time %q: %w", sendTime, err)
	}

	local := now.In(g.settings.Timezone(ctx))

	currentTotal := local.Hour()*60 + local.Minute()
	scheduledTotal := scheduled.Hour()*60 + scheduled.Minute()
	diff := currentTotal - scheduledTotal
	if diff < 0 {
		diff = -diff
	}

	result := &GateResult{
		Proceed:               force || diff <= toleranceMinutes,
		CurrentTime:           fmt.Sprintf("%02d:%02d", local.Hour(), local.Minute()),
		ScheduledTime:         fmt.Sprintf("%02d:%02d", scheduled.Hour(), scheduled.Minute()),
		TimeDifferenceMinutes: diff,
		ToleranceMinutes:      toleranceMinutes,
	}

	g.log.Info().
		Bool("proceed", result.Proceed).
		Bool("force", force).
		Str("current_time", result.CurrentTime).
		Str("scheduled_time", result.ScheduledTime).
		Int("difference_minutes", diff).
		Msg("schedule gate evaluated")
	return result, nil
}
