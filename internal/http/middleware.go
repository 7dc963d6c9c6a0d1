package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"
)

type ctxKey struct{}

// SessionMiddleware resolves the caller's session from the X-Session-ID header or the sid
// cookie. A missing or expired session is replaced with a fresh one; the id is always sent back.
func SessionMiddleware(store session.Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			id := r.Header.Get(SessionHeader)
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = c.Value
				}
			}

			var sess *session.Session
			if id != "" {
				s, err := store.Get(ctx, id)
				switch {
				case err == nil:
					sess = s
				case errors.Is(err, session.ErrNotFound):
					log.Debug("session expired, starting a new one", zap.String("expired_session_id", id))
				default:
					log.Error("failed to load session", zap.Error(err))
					respondError(w, r, http.StatusServiceUnavailable, "session_unavailable", "session store is unavailable")
					return
				}
			}
			if sess == nil {
				s, err := store.Create(ctx)
				if err != nil {
					log.Error("failed to create session", zap.Error(err))
					respondError(w, r, http.StatusServiceUnavailable, "session_unavailable", "session store is unavailable")
					return
				}
				sess = s
			}

			setSessionID(w, sess.ID, ttl)

			ctx = logger.WithLogger(ctx, log.With(zap.String("session_id", sess.ID)))
			ctx = context.WithValue(ctx, ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setSessionID sends the session id in the header and the cookie, replacing any id set earlier in the response.
func setSessionID(w http.ResponseWriter, id string, ttl time.Duration) {
	w.Header().Set(SessionHeader, id)
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// getSessionFromContext returns the snapshot loaded by SessionMiddleware.
// Mutations go through the store, never through this copy.
func getSessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(ctxKey{}).(*session.Session)
	return sess
}
