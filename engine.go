package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/pkalnins/authcore/internal/rate"
	"github.com/pkalnins/authcore/jwt"
	"github.com/pkalnins/authcore/password"
)

// Engine is the authentication core. It verifies credentials against the
// user store, issues access+refresh token pairs, validates access tokens
// on the hot path, and exchanges refresh tokens for new access tokens.
//
// All methods are safe for concurrent use after [Builder.Build]; the
// engine holds no mutable state besides its metric counters and the
// audit queue.
type Engine struct {
	config       Config
	userStore    UserStore
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Bcrypt
	jwtManager   *jwt.Manager
}

// Close drains and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a deep copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies the username/password pair and issues a token pair with
// the configured default access TTL.
//
// Unknown usernames and wrong passwords both fail with
// [ErrInvalidCredentials]; callers must surface them identically. A
// backing-store fault is returned as an error wrapping
// [ErrUserStoreUnavailable] and is the only non-credential failure.
func (e *Engine) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	return e.loginInternal(ctx, username, password, 0)
}

// LoginWithTTL is [Engine.Login] with a per-call access-token lifetime.
// The refresh-token lifetime is fixed by configuration and cannot be
// overridden here or anywhere else.
func (e *Engine) LoginWithTTL(ctx context.Context, username, password string, accessTTL time.Duration) (*TokenPair, error) {
	return e.loginInternal(ctx, username, password, accessTTL)
}

func (e *Engine) loginInternal(ctx context.Context, username, password string, accessTTL time.Duration) (*TokenPair, error) {
	if e == nil || e.userStore == nil || e.jwtManager == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if e.config.Security.EnableLoginThrottle && e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, username, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, EventLoginRateLimited, false, username, 0, ErrLoginRateLimited, nil)
			return nil, ErrLoginRateLimited
		}
	}

	user, err := e.userStore.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, wrapStoreFault(err)
		}
		return nil, e.failLogin(ctx, username, 0, "user_not_found")
	}

	if password == "" || !e.passwordHash.Verify(password, user.PasswordHash) {
		return nil, e.failLogin(ctx, username, user.UserID, "password_mismatch")
	}

	if e.config.Account.RequireActive && !user.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, EventLoginFailure, false, username, user.UserID, ErrAccountDisabled, func() map[string]string {
			return map[string]string{"reason": "account_inactive"}
		})
		return nil, ErrAccountDisabled
	}

	access, err := e.jwtManager.CreateAccess(user.Username, user.UserID, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := e.jwtManager.CreateRefresh(user.Username, user.UserID)
	if err != nil {
		return nil, err
	}

	if e.config.Security.EnableLoginThrottle && e.rateLimiter != nil {
		// A stale counter only shortens the next window; do not fail a
		// correct login over it.
		_ = e.rateLimiter.ResetLogin(ctx, username, ip)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, EventLoginSuccess, true, username, user.UserID, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (e *Engine) failLogin(ctx context.Context, username string, userID int64, reason string) error {
	if e.config.Security.EnableLoginThrottle && e.rateLimiter != nil {
		ip := clientIPFromContext(ctx)
		if err := e.rateLimiter.IncrementLogin(ctx, username, ip); errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, EventLoginRateLimited, false, username, userID, ErrLoginRateLimited, nil)
			return ErrLoginRateLimited
		}
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, EventLoginFailure, false, username, userID, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})

	return ErrInvalidCredentials
}

// Validate decodes and verifies an access token and returns the identity
// it carries. This is the gate every protected operation calls.
//
// Every failure (expired, bad signature, refresh-signed token, missing
// sub or id claim) collapses to [ErrUnauthorized]; audit events retain
// the distinction. Validate never consults the user store: a record
// deleted or deactivated after issuance stays authorized until the token
// expires.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*Identity, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, EventTokenRejected, false, "", 0, err, func() map[string]string {
			return map[string]string{"kind": tokenFailureKind(err)}
		})
		return nil, ErrUnauthorized
	}

	identity, ok := identityFromClaims(claims)
	if !ok {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, EventTokenRejected, false, claims.Subject, claims.UserID, ErrUnauthorized, func() map[string]string {
			return map[string]string{"kind": "partial_claims"}
		})
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)

	return identity, nil
}

// Refresh exchanges a refresh token for a new access token with the
// configured default TTL. It never returns or rotates the refresh token,
// and every validation failure collapses to [ErrUnauthorized].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}

	if e.config.Security.EnableRefreshThrottle && e.rateLimiter != nil {
		ip := clientIPFromContext(ctx)
		if err := e.rateLimiter.CheckRefresh(ctx, ip); err != nil {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, EventRefreshRateLimited, false, "", 0, ErrRefreshRateLimited, nil)
			return "", ErrRefreshRateLimited
		}
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, EventRefreshFailure, false, "", 0, err, func() map[string]string {
			return map[string]string{"kind": tokenFailureKind(err)}
		})
		return "", ErrUnauthorized
	}

	identity, ok := identityFromClaims(claims)
	if !ok {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, EventRefreshFailure, false, claims.Subject, claims.UserID, ErrUnauthorized, func() map[string]string {
			return map[string]string{"kind": "partial_claims"}
		})
		return "", ErrUnauthorized
	}

	access, err := e.jwtManager.CreateAccess(identity.Username, identity.UserID, 0)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, EventRefreshSuccess, true, identity.Username, identity.UserID, nil, nil)

	return access, nil
}

// A token missing either claim is as untrustworthy as one that failed
// signature verification; both collapse to unauthorized.
func identityFromClaims(claims *jwt.Claims) (*Identity, bool) {
	if claims == nil || claims.Subject == "" || claims.UserID == 0 {
		return nil, false
	}
	return &Identity{Username: claims.Subject, UserID: claims.UserID}, true
}

func tokenFailureKind(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "expired"
	default:
		return "invalid"
	}
}
