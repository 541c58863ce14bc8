// Package auth manages user identity for both backends: a local registry
// in the embedded database, and a delegated session against the hosted
// auth service.
package auth

import (
	"context"
	"errors"

	"github.com/mflores/dayplan/internal/model"
)

// Sentinel errors shared by both authenticators.
var (
	// ErrInvalidCredentials is returned for every login failure, whether
	// the username is unknown or the password is wrong. Keeping a single
	// error starves account enumeration of its signal.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateUser is returned by Register for an already-taken
	// username.
	ErrDuplicateUser = errors.New("username already registered")

	// Register input validation failures.
	ErrInvalidUsername = errors.New("username must be at least 3 characters")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPassword = errors.New("password must be at least 8 characters with upper, lower and digit")

	// ErrUnauthenticated is returned by operations that need an active
	// session when there is none.
	ErrUnauthenticated = errors.New("no active session")
)

// EventType classifies session change events.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is a session state change. User is set for sign-in events and nil
// for sign-out events.
type Event struct {
	Type EventType
	User *model.User
}

// Authenticator is the session contract shared by the local and remote
// backends. Implementations publish session changes on Events; the
// channel is closed by Close.
type Authenticator interface {
	// Register creates a new account and signs it in. Input validation
	// happens before any storage is touched.
	Register(ctx context.Context, username, email, password string) (model.User, error)

	// Login verifies the credentials and starts a session. The identifier
	// is the username for the local backend and the email for the remote
	// one. All failures surface as ErrInvalidCredentials.
	Login(ctx context.Context, identifier, password string) (model.User, error)

	// Logout ends the current session. Logging out without a session is
	// not an error.
	Logout(ctx context.Context) error

	// CurrentUser returns the signed-in user, or nil when anonymous. An
	// error means the session state could not be determined at all.
	CurrentUser(ctx context.Context) (*model.User, error)

	// Events returns the session change stream.
	Events() <-chan Event

	Close() error
}
