package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

// Authenticator exchanges credentials for a gateway identity.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (domain.Identity, error)
}

type SessionHandler struct {
	store      session.Store
	auth       Authenticator
	timeout    time.Duration
	ttl        time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewSessionHandler(store session.Store, auth Authenticator, timeout, sessionTTL, checkoutTimeout time.Duration) *SessionHandler {
	return &SessionHandler{
		store:      store,
		auth:       auth,
		timeout:    timeout,
		ttl:        sessionTTL,
		staleAfter: checkoutTimeout,
		now:        time.Now,
	}
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	var problems []string
	if strings.TrimSpace(req.Username) == "" {
		problems = append(problems, "username is required")
	}
	if req.Password == "" {
		problems = append(problems, "password is required")
	}
	if len(problems) > 0 {
		handleError(w, r, domain.NewValidationError(problems))
		return
	}

	id, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := h.rotate(ctx, getSessionFromContext(r.Context()).ID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	setSessionID(w, sess.ID, h.ttl)
	logger.FromContext(ctx).Info("user logged in",
		zap.Int64("user_id", id.User.ID), zap.String("new_session_id", sess.ID))
	respondJSON(w, r, http.StatusOK, newSessionResponse(sess))
}

// rotate moves the cart and coupon to a new session id that carries the identity and
// drops the old id, so an id known before login is useless after it.
func (h *SessionHandler) rotate(ctx context.Context, oldID string, id domain.Identity) (*session.Session, error) {
	current, err := h.store.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	if current.CheckoutInProgress(h.now(), h.staleAfter) {
		return nil, checkout.ErrCheckoutInProgress
	}

	fresh, err := h.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := h.store.Update(ctx, fresh.ID, func(s *session.Session) error {
		s.Identity = &id
		s.Cart = current.Cart.Clone()
		s.Coupon = current.Coupon
		return nil
	})
	if err != nil {
		_ = h.store.Delete(ctx, fresh.ID)
		return nil, err
	}
	if err := h.store.Delete(ctx, oldID); err != nil {
		logger.FromContext(ctx).Warn("failed to delete pre-login session", zap.Error(err))
	}
	return sess, nil
}

// Logout forgets the identity. The cart stays with the session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.store.Update(ctx, getSessionFromContext(r.Context()).ID, func(s *session.Session) error {
		s.Identity = nil
		return nil
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newSessionResponse(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, newSessionResponse(getSessionFromContext(r.Context())))
}

func newSessionResponse(s *session.Session) SessionResponse {
	state := s.Coupon.State
	if state == "" {
		state = coupon.StateNone
	}
	return SessionResponse{
		SessionID:   s.ID,
		Identity:    newIdentityResponse(s.Identity),
		CartCount:   s.Cart.Count(),
		CouponState: state,
	}
}
