package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mflores/dayplan/internal/kv"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/store"
	"github.com/mflores/dayplan/internal/validate"
)

// sessionKey marks the signed-in user in the local state file.
const sessionKey = "current_user_id"

// LocalAuthenticator keeps accounts in the embedded database, with
// passwords stored as Argon2id hashes. The active session survives
// restarts through a marker in the local state file.
type LocalAuthenticator struct {
	registry *store.SQLiteStore
	state    *kv.Store

	events    chan Event
	closeOnce sync.Once

	dummyOnce sync.Once
	dummyHash string
}

// NewLocalAuthenticator creates an authenticator over the given registry
// and local state file.
func NewLocalAuthenticator(registry *store.SQLiteStore, state *kv.Store) *LocalAuthenticator {
	return &LocalAuthenticator{
		registry: registry,
		state:    state,
		events:   make(chan Event, 8),
	}
}

// Register validates the input, hashes the password, creates the account,
// and signs it in.
func (a *LocalAuthenticator) Register(ctx context.Context, username, email, password string) (model.User, error) {
	if !validate.Username(username) {
		return model.User{}, ErrInvalidUsername
	}
	if !validate.Email(email) {
		return model.User{}, ErrInvalidEmail
	}
	if !validate.Password(password) {
		return model.User{}, ErrInvalidPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	u := model.User{
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.registry.CreateUser(ctx, u, hash); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, err
	}

	stored, _, err := a.registry.GetUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, fmt.Errorf("loading new user: %w", err)
	}

	if err := a.state.Set(sessionKey, stored.ID); err != nil {
		return model.User{}, fmt.Errorf("saving session: %w", err)
	}
	a.emit(Event{Type: EventSignedIn, User: &stored})
	return stored, nil
}

// Login verifies the password and starts a session. An unknown username
// and a wrong password return the identical error, and the unknown-user
// path still burns a hash verification so the two cost the same.
func (a *LocalAuthenticator) Login(ctx context.Context, username, password string) (model.User, error) {
	u, hash, err := a.registry.GetUserByUsername(ctx, username)
	if err != nil {
		VerifyPassword(password, a.decoyHash())
		return model.User{}, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil || !ok {
		return model.User{}, ErrInvalidCredentials
	}

	if err := a.state.Set(sessionKey, u.ID); err != nil {
		return model.User{}, fmt.Errorf("saving session: %w", err)
	}
	a.emit(Event{Type: EventSignedIn, User: &u})
	return u, nil
}

// Logout clears the session marker. Logging out while anonymous is a
// no-op.
func (a *LocalAuthenticator) Logout(ctx context.Context) error {
	if err := a.state.Remove(sessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	a.emit(Event{Type: EventSignedOut})
	return nil
}

// CurrentUser resolves the session marker against the registry. A marker
// pointing at a deleted account is cleared and treated as anonymous.
func (a *LocalAuthenticator) CurrentUser(ctx context.Context) (*model.User, error) {
	id, ok := a.state.Get(sessionKey)
	if !ok {
		return nil, nil
	}

	u, err := a.registry.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		a.state.Remove(sessionKey)
		return nil, nil
	}
	return u, nil
}

// Events returns the session change stream.
func (a *LocalAuthenticator) Events() <-chan Event {
	return a.events
}

// Close closes the event stream. The registry is owned by the caller and
// closed separately.
func (a *LocalAuthenticator) Close() error {
	a.closeOnce.Do(func() {
		close(a.events)
	})
	return nil
}

// emit publishes an event without blocking; a full buffer drops the event
// rather than stalling a login.
func (a *LocalAuthenticator) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}

// decoyHash returns a hash of a throwaway password, computed once, used to
// equalize timing when the username does not exist.
func (a *LocalAuthenticator) decoyHash() string {
	a.dummyOnce.Do(func() {
		h, err := HashPassword("decoy")
		if err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}
