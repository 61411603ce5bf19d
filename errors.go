package authcore

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; the two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is the single caller-visible outcome of every access
	// or refresh token failure: expired, bad signature, wrong key,
	// malformed or partial claims.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is the user-store contract error for a missing
	// username. The engine never surfaces it from Login.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists reports a signup against a taken username.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountDisabled reports a correct-credential login against an
	// inactive record when Account.RequireActive is enabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountCreationInvalid reports a malformed signup request.
	ErrAccountCreationInvalid = errors.New("invalid account creation request")
	// ErrLoginRateLimited reports a login attempt over the throttle budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited reports a refresh attempt over the throttle budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrUserStoreUnavailable wraps backing-store faults during lookup or
	// insert. Unlike credential failures it is an error, not an outcome.
	ErrUserStoreUnavailable = errors.New("user store unavailable")
	// ErrEngineNotReady reports use of a nil or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
