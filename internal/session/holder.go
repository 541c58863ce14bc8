// Package session tracks the signed-in user across the application.
// It starts in a loading state, restores any persisted session once, and
// then follows the authenticator's event stream.
package session

import (
	"context"
	"sync"

	"github.com/mflores/dayplan/internal/auth"
	"github.com/mflores/dayplan/internal/model"
)

// State is the holder's view of the session.
type State int

const (
	// StateLoading means the persisted session has not been checked yet.
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Holder caches the current session state and keeps it in sync with the
// authenticator's events.
type Holder struct {
	authn auth.Authenticator

	mu     sync.RWMutex
	state  State
	user   *model.User
	closed bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewHolder creates a holder in the loading state and starts following
// the authenticator's event stream.
func NewHolder(authn auth.Authenticator) *Holder {
	h := &Holder{
		authn: authn,
		state: StateLoading,
		done:  make(chan struct{}),
	}

	h.wg.Add(1)
	go h.follow()

	return h
}

// Restore checks for a persisted session and resolves the loading state.
// A lookup failure degrades to anonymous instead of blocking the app on
// an unreachable keyring or service; the error is returned so the caller
// can report it.
func (h *Holder) Restore(ctx context.Context) error {
	user, err := h.authn.CurrentUser(ctx)
	if err != nil {
		h.set(StateAnonymous, nil)
		return err
	}

	if user != nil {
		h.set(StateAuthenticated, user)
	} else {
		h.set(StateAnonymous, nil)
	}
	return nil
}

// State returns the current session state.
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// User returns the signed-in user, or nil unless authenticated.
func (h *Holder) User() *model.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.user
}

// Close stops following the event stream. State updates arriving after
// Close are discarded.
func (h *Holder) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
	})
	h.wg.Wait()
	return nil
}

// follow applies session events until the stream or the holder closes.
func (h *Holder) follow() {
	defer h.wg.Done()

	events := h.authn.Events()
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case auth.EventSignedIn:
				h.set(StateAuthenticated, ev.User)
			case auth.EventSignedOut:
				h.set(StateAnonymous, nil)
			}
		}
	}
}

func (h *Holder) set(state State, user *model.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.state = state
	h.user = user
}
