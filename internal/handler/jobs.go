package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mailer8/mailer8/internal/middleware"
	"github.com/mailer8/mailer8/internal/service"
)

// parseTargetDate extracts the optional date query parameter. The zero
// time means "today". A malformed value writes a 400 and returns false.
func parseTargetDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, true
	}
	target, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "Invalid date format. Use YYYY-MM-DD")
		return time.Time{}, false
	}
	return target, true
}

// SendBirthdayEmails handles POST /api/v1/jobs/birthday-emails.
// Session-authenticated admin trigger: always runs, regardless of the
// configured send time.
func (h *Handler) SendBirthdayEmails(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTargetDate(w, r)
	if !ok {
		return
	}

	h.log.Info().
		Str("triggered_by", middleware.GetUserID(r.Context())).
		Msg("birthday email job started")

	summary, err := h.dispatchSvc.Run(r.Context(), target)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.logSummary(summary)
	writeJSON(w, http.StatusOK, summary)
}

// SendBirthdayEmailsCron handles POST /api/v1/jobs/birthday-emails/cron.
// Pre-shared-key trigger for external schedulers: the schedule gate
// decides whether now is close enough to the configured send time, so
// the endpoint stays safe to call frequently or slightly off-time.
func (h *Handler) SendBirthdayEmailsCron(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTargetDate(w, r)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	gate, err := h.gate.ShouldRun(r.Context(), time.Now(), force)
	if err != nil {
		h.log.Error().Err(err).Msg("schedule gate evaluation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to evaluate schedule")
		return
	}

	if !gate.Proceed {
		// 200 on skip: the caller did nothing wrong, the window just
		// is not open. Diagnostics let operators verify the timing.
		writeJSON(w, http.StatusOK, struct {
			Skipped bool `json:"skipped"`
			*service.GateResult
		}{true, gate})
		return
	}

	summary, err := h.dispatchSvc.Run(r.Context(), target)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	h.logSummary(summary)
	// 200 even with partial failures: the job itself succeeded and the
	// summary body carries the per-customer outcomes.
	writeJSON(w, http.StatusOK, summary)
}

// GetEmailLogs handles GET /api/v1/jobs/email-logs
func (h *Handler) GetEmailLogs(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	logs, err := h.emailLogRepo.List(r.Context(), customerID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list email logs")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve email logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// GetBirthdayEmailStats handles GET /api/v1/jobs/birthday-email-stats
func (h *Handler) GetBirthdayEmailStats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_days", "Invalid days parameter")
			return
		}
		days = parsed
	}

	stats, err := h.emailLogRepo.Stats(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute email stats")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to compute email statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNoDefaultTemplate) {
		writeError(w, http.StatusInternalServerError, "no_default_template",
			"No default template configured. Please set a default template in settings.")
		return
	}
	h.log.Error().Err(err).Msg("birthday email job failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "Birthday email job failed")
}

func (h *Handler) logSummary(summary *service.RunSummary) {
	if summary.Failed > 0 {
		h.log.Warn().
			Int("attempted", summary.Attempted).
			Int("sent", summary.Sent).
			Int("failed", summary.Failed).
			Interface("errors", summary.Errors).
			Msg("birthday emails processed with failures")
		return
	}
	h.log.DispatchSummary("http", summary.Attempted, summary.Sent, summary.Failed)
}
