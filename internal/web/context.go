package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tariffdash/internal/core"
)

type snapshotKey struct{}

// withSnapshot pins the snapshot a request reads, so every handler sees the
// same one.
func withSnapshot(ctx context.Context, snap *core.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap)
}

// snapshotFrom returns the snapshot stored by requireSnapshot.
func snapshotFrom(ctx context.Context) *core.Snapshot {
	snap, _ := ctx.Value(snapshotKey{}).(*core.Snapshot)
	return snap
}

// requireSnapshot answers 503 until a snapshot has been published.
func (s *Server) requireSnapshot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.store.Load()
		if err != nil {
			w.Header().Set("Retry-After", "5")
			s.respondError(w, r, err, statusFor(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
	})
}
