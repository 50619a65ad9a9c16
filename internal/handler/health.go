package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the backing store is reachable. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns the health endpoint handler. It answers 200 while the
// database responds to a ping and 503 otherwise.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": "database unreachable",
			})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
