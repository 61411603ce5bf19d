package authcore

import "context"

// Identity is the authenticated principal embedded in every token:
// the unique username and the store-assigned numeric user id.
type Identity struct {
	Username string
	UserID   int64
}

// UserRecord is the credential record the engine reads from the user
// store. The core never mutates records after creation.
type UserRecord struct {
	UserID       int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
	Active       bool
}

// CreateUserInput is the record handed to [UserStore.CreateUser] at
// signup. The store assigns the user id.
type CreateUserInput struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
	Active       bool
}

// UserStore is the contract callers must implement to integrate authcore
// with their user database. The store owns username uniqueness and its
// own concurrency discipline.
//
// CreateUser returns [ErrAccountExists] for a taken username.
// GetUserByUsername returns [ErrUserNotFound] for a missing one; any
// other error is treated as a backing-store fault.
type UserStore interface {
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CreateAccountRequest is the input for [Engine.CreateAccount].
// Username, FirstName, LastName, and Password are required; Email and
// PhoneNumber are optional, matching the signup payload.
type CreateAccountRequest struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Password    string
}

// CreateAccountResult is returned by [Engine.CreateAccount]. Signup never
// issues tokens; callers log in separately.
type CreateAccountResult struct {
	UserID int64
}
