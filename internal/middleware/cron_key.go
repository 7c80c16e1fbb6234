package middleware

import (
	"crypto/subtle"
	"net/http"
)

// CronKeyHeader carries the pre-shared key for the external cron
// endpoint. External schedulers are not logged-in admins, so this path
// authenticates separately from the session mechanism.
const CronKeyHeader = "X-API-Key"

// CronKey rejects requests whose pre-shared key header does not match
// the configured cron API key. An empty configured key disables the
// endpoint entirely.
func (m *Middleware) CronKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configured := m.cfg.Cron.APIKey
		provided := r.Header.Get(CronKeyHeader)

		if configured == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
			m.log.Warn().Str("path", r.URL.Path).Msg("external cron trigger rejected: invalid API key")
			http.Error(w, `{"error":{"code":"unauthorized","message":"Invalid API key"}}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
