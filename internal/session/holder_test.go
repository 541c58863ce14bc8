package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/auth"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/session"
)

// fakeAuth is a scriptable Authenticator for holder tests.
type fakeAuth struct {
	current *model.User
	err     error
	events  chan auth.Event
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{events: make(chan auth.Event, 8)}
}

func (f *fakeAuth) Register(context.Context, string, string, string) (model.User, error) {
	return model.User{}, nil
}
func (f *fakeAuth) Login(context.Context, string, string) (model.User, error) {
	return model.User{}, nil
}
func (f *fakeAuth) Logout(context.Context) error { return nil }
func (f *fakeAuth) CurrentUser(context.Context) (*model.User, error) {
	return f.current, f.err
}
func (f *fakeAuth) Events() <-chan auth.Event { return f.events }
func (f *fakeAuth) Close() error              { close(f.events); return nil }

func waitForState(t *testing.T, h *session.Holder, want session.State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if h.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state never became %s, still %s", want, h.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHolderStartsLoading(t *testing.T) {
	f := newFakeAuth()
	h := session.NewHolder(f)
	defer h.Close()

	assert.Equal(t, session.StateLoading, h.State())
	assert.Nil(t, h.User())
}

func TestHolderRestoreAuthenticated(t *testing.T) {
	f := newFakeAuth()
	f.current = &model.User{ID: "uid-1", Username: "ana"}

	h := session.NewHolder(f)
	defer h.Close()

	require.NoError(t, h.Restore(context.Background()))
	assert.Equal(t, session.StateAuthenticated, h.State())
	assert.Equal(t, "ana", h.User().Username)
}

func TestHolderRestoreAnonymous(t *testing.T) {
	f := newFakeAuth()
	h := session.NewHolder(f)
	defer h.Close()

	require.NoError(t, h.Restore(context.Background()))
	assert.Equal(t, session.StateAnonymous, h.State())
}

func TestHolderRestoreFailureDegradesToAnonymous(t *testing.T) {
	f := newFakeAuth()
	f.err = errors.New("keyring unavailable")

	h := session.NewHolder(f)
	defer h.Close()

	err := h.Restore(context.Background())
	assert.Error(t, err)
	assert.Equal(t, session.StateAnonymous, h.State())
}

func TestHolderFollowsEvents(t *testing.T) {
	f := newFakeAuth()
	h := session.NewHolder(f)
	defer h.Close()

	f.events <- auth.Event{Type: auth.EventSignedIn, User: &model.User{ID: "uid-1", Username: "ana"}}
	waitForState(t, h, session.StateAuthenticated)
	assert.Equal(t, "ana", h.User().Username)

	f.events <- auth.Event{Type: auth.EventSignedOut}
	waitForState(t, h, session.StateAnonymous)
	assert.Nil(t, h.User())
}

func TestHolderDiscardsUpdatesAfterClose(t *testing.T) {
	f := newFakeAuth()
	h := session.NewHolder(f)

	require.NoError(t, h.Restore(context.Background()))
	require.NoError(t, h.Close())

	f.events <- auth.Event{Type: auth.EventSignedIn, User: &model.User{ID: "uid-1"}}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, session.StateAnonymous, h.State())
}
