package auth_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/auth"
	"github.com/mflores/dayplan/internal/kv"
	"github.com/mflores/dayplan/tests/testutil"
)

func newLocalAuth(t *testing.T) *auth.LocalAuthenticator {
	t.Helper()

	state, err := kv.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	a := auth.NewLocalAuthenticator(testutil.NewTestStore(t), state)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestLocalRegisterValidation(t *testing.T) {
	a := newLocalAuth(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "an", "ana@example.com", "Passw0rd")
	assert.ErrorIs(t, err, auth.ErrInvalidUsername)

	_, err = a.Register(ctx, "ana", "not an email", "Passw0rd")
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)

	_, err = a.Register(ctx, "ana", "ana@example.com", "abcdefg1")
	assert.ErrorIs(t, err, auth.ErrInvalidPassword)
}

func TestLocalRegisterAndLogin(t *testing.T) {
	a := newLocalAuth(t)
	ctx := context.Background()

	u, err := a.Register(ctx, "ana", "ana@example.com", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.NotEmpty(t, u.ID)

	// Registering signs the user in.
	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, u.ID, current.ID)

	_, err = a.Register(ctx, "ana", "other@example.com", "Passw0rd")
	assert.ErrorIs(t, err, auth.ErrDuplicateUser)

	require.NoError(t, a.Logout(ctx))
	current, err = a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	logged, err := a.Login(ctx, "ana", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
}

func TestLocalLoginFailuresAreIndistinguishable(t *testing.T) {
	a := newLocalAuth(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "ana", "ana@example.com", "Passw0rd")
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx))

	_, wrongPass := a.Login(ctx, "ana", "Passw0rd1")
	_, unknownUser := a.Login(ctx, "nadie", "Passw0rd")

	assert.ErrorIs(t, wrongPass, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, auth.ErrInvalidCredentials)
	// Same message either way, so a caller cannot probe for usernames.
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}

func TestLocalLogoutIdempotent(t *testing.T) {
	a := newLocalAuth(t)
	ctx := context.Background()

	require.NoError(t, a.Logout(ctx))
	require.NoError(t, a.Logout(ctx))
}

func TestLocalEvents(t *testing.T) {
	a := newLocalAuth(t)
	ctx := context.Background()

	_, err := a.Register(ctx, "ana", "ana@example.com", "Passw0rd")
	require.NoError(t, err)

	ev := <-a.Events()
	assert.Equal(t, auth.EventSignedIn, ev.Type)
	require.NotNil(t, ev.User)
	assert.Equal(t, "ana", ev.User.Username)

	require.NoError(t, a.Logout(ctx))
	ev = <-a.Events()
	assert.Equal(t, auth.EventSignedOut, ev.Type)
	assert.Nil(t, ev.User)
}
