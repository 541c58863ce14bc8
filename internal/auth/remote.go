package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mflores/dayplan/internal/credential"
	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/remote"
	"github.com/mflores/dayplan/internal/validate"
)

// TokenStore persists the remote session tokens between runs.
type TokenStore interface {
	// Load returns the stored tokens. No stored session yields empty
	// strings with a nil error.
	Load() (access, refresh string, err error)
	Save(access, refresh string) error
	Clear() error
}

// KeyringTokens stores the session tokens in the system keyring.
type KeyringTokens struct{}

func (KeyringTokens) Load() (string, string, error) {
	access, err := credential.Get(credential.KeyAccessToken)
	if err != nil {
		if credential.IsNotFound(err) {
			return "", "", nil
		}
		return "", "", err
	}
	refresh, err := credential.Get(credential.KeyRefreshToken)
	if err != nil && !credential.IsNotFound(err) {
		return "", "", err
	}
	return access, refresh, nil
}

func (KeyringTokens) Save(access, refresh string) error {
	if err := credential.Set(credential.KeyAccessToken, access); err != nil {
		return err
	}
	return credential.Set(credential.KeyRefreshToken, refresh)
}

func (KeyringTokens) Clear() error {
	if err := credential.Delete(credential.KeyAccessToken); err != nil {
		return err
	}
	return credential.Delete(credential.KeyRefreshToken)
}

// RemoteAuthenticator delegates identity to the hosted auth service. The
// service hashes passwords and issues the session tokens; this side only
// keeps the tokens in the keyring.
type RemoteAuthenticator struct {
	client *remote.Client
	tokens TokenStore

	events    chan Event
	closeOnce sync.Once
}

// NewRemoteAuthenticator creates an authenticator over the shared service
// client. A nil tokens falls back to the system keyring.
func NewRemoteAuthenticator(client *remote.Client, tokens TokenStore) *RemoteAuthenticator {
	if tokens == nil {
		tokens = KeyringTokens{}
	}
	return &RemoteAuthenticator{
		client: client,
		tokens: tokens,
		events: make(chan Event, 8),
	}
}

// gotrueUser is the wire shape of a user in auth service responses.
type gotrueUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

func (u gotrueUser) toUser() model.User {
	username := u.UserMetadata.Username
	if username == "" {
		// Old accounts predate the username metadata field.
		username = strings.SplitN(u.Email, "@", 2)[0]
	}
	return model.User{
		ID:        u.ID,
		Username:  username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// sessionResponse is the wire shape of signup and token responses.
type sessionResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         gotrueUser `json:"user"`
}

// Register creates the account on the service, passing the username as
// user metadata, and signs the new session in.
func (a *RemoteAuthenticator) Register(ctx context.Context, username, email, password string) (model.User, error) {
	if !validate.Username(username) {
		return model.User{}, ErrInvalidUsername
	}
	if !validate.Email(email) {
		return model.User{}, ErrInvalidEmail
	}
	if !validate.Password(password) {
		return model.User{}, ErrInvalidPassword
	}

	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}

	var session sessionResponse
	if err := a.client.Post(ctx, "/auth/v1/signup", body, &session); err != nil {
		if isDuplicateSignup(err) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, fmt.Errorf("signing up: %w", err)
	}

	return a.installSession(session)
}

// Login exchanges the email and password for a session token.
func (a *RemoteAuthenticator) Login(ctx context.Context, identifier, password string) (model.User, error) {
	body := map[string]string{
		"email":    identifier,
		"password": password,
	}

	var session sessionResponse
	err := a.client.Post(ctx, "/auth/v1/token?grant_type=password", body, &session)
	if err != nil {
		// The service's reason (bad password, unknown email, unconfirmed
		// account) is deliberately not surfaced.
		if remote.IsAuthError(err) || isBadGrant(err) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("logging in: %w", err)
	}

	return a.installSession(session)
}

// Logout revokes the session server-side and drops the stored tokens.
// Token revocation failures are ignored; the local state is cleared
// either way.
func (a *RemoteAuthenticator) Logout(ctx context.Context) error {
	if a.client.Token() != "" {
		a.client.Post(ctx, "/auth/v1/logout", struct{}{}, nil)
	}

	a.client.SetToken("")
	if err := a.tokens.Clear(); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	a.emit(Event{Type: EventSignedOut})
	return nil
}

// CurrentUser restores the stored token if needed and validates it with
// the service. An expired or revoked token clears the stored session and
// reports anonymous rather than failing.
func (a *RemoteAuthenticator) CurrentUser(ctx context.Context) (*model.User, error) {
	if a.client.Token() == "" {
		access, _, err := a.tokens.Load()
		if err != nil {
			return nil, fmt.Errorf("loading stored session: %w", err)
		}
		if access == "" {
			return nil, nil
		}
		a.client.SetToken(access)
	}

	var u gotrueUser
	if err := a.client.Get(ctx, "/auth/v1/user", &u); err != nil {
		if remote.IsAuthError(err) {
			a.client.SetToken("")
			a.tokens.Clear()
			return nil, nil
		}
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	user := u.toUser()
	return &user, nil
}

// Events returns the session change stream.
func (a *RemoteAuthenticator) Events() <-chan Event {
	return a.events
}

// Close closes the event stream.
func (a *RemoteAuthenticator) Close() error {
	a.closeOnce.Do(func() {
		close(a.events)
	})
	return nil
}

// installSession persists and installs the tokens from a fresh session
// and emits the sign-in event.
func (a *RemoteAuthenticator) installSession(session sessionResponse) (model.User, error) {
	if session.AccessToken == "" {
		// Signup with email confirmation enabled returns a user but no
		// session yet.
		return session.User.toUser(), nil
	}

	if err := a.tokens.Save(session.AccessToken, session.RefreshToken); err != nil {
		return model.User{}, fmt.Errorf("saving tokens: %w", err)
	}
	a.client.SetToken(session.AccessToken)

	user := session.User.toUser()
	a.emit(Event{Type: EventSignedIn, User: &user})
	return user, nil
}

func (a *RemoteAuthenticator) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}

// isDuplicateSignup detects the service's already-registered responses.
func isDuplicateSignup(err error) bool {
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status != 400 && apiErr.Status != 422 {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "already registered") ||
		strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

// isBadGrant detects the 400 the token endpoint answers to wrong
// credentials with.
func isBadGrant(err error) bool {
	var apiErr *remote.APIError
	return errors.As(err, &apiErr) && apiErr.Status == 400
}
