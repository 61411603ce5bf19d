package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreateAccount hashes the password and inserts an active credential
// record through the user store. Signup never issues tokens; the caller
// logs in separately. A taken username fails with [ErrAccountExists].
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResult, error) {
	if e == nil || e.userStore == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Account.Enabled {
		return nil, ErrAccountCreationInvalid
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.FirstName == "" || req.LastName == "" {
		return nil, ErrAccountCreationInvalid
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountCreationInvalid, err)
	}

	user, err := e.userStore.CreateUser(ctx, CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricAccountCreationDuplicate)
			e.emitAudit(ctx, EventAccountCreationFailed, false, req.Username, 0, ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, wrapStoreFault(err)
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, EventAccountCreated, true, user.Username, user.UserID, nil, nil)

	return &CreateAccountResult{UserID: user.UserID}, nil
}

func wrapStoreFault(err error) error {
	if errors.Is(err, ErrUserStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
}
