// Package auth issues and validates the opaque session tokens that gate
// every authenticated request.  A token is a pure capability: possession
// authorizes acting as the owning user, there is no expiry and no server-side
// logout — only the next login or registration supersedes it.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	apperrors "github.com/brightroom/brightroom/errors"
	"github.com/brightroom/brightroom/store"
)

// tokenBytes is the entropy of a session token; rendered as 2× hex chars.
const tokenBytes = 16

// Authenticator resolves session tokens against the user collection.
type Authenticator struct {
	users *store.Users
}

// New creates an Authenticator over the given user store.
func New(users *store.Users) *Authenticator {
	return &Authenticator{users: users}
}

// GenerateToken returns a new random session token as fixed-width hex.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Wrap(apperrors.CategoryAuth, "auth.token", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register creates a new user and issues its first session token.  An
// existing username fails with ErrDuplicateUser and leaves the stored record
// untouched.
func (a *Authenticator) Register(ctx context.Context, username, password string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	err = a.users.Mutate(ctx, func(users map[string]store.UserRecord) error {
		if _, exists := users[username]; exists {
			return apperrors.New(apperrors.CategoryValidation, "auth.register", apperrors.ErrDuplicateUser)
		}
		users[username] = store.UserRecord{Password: password, SessionToken: token}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Login checks the credentials and issues a fresh token, superseding any
// prior one for the user.  Credentials are compared verbatim against the
// stored record (inherited contract; see store.UserRecord).
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	err = a.users.Mutate(ctx, func(users map[string]store.UserRecord) error {
		rec, ok := users[username]
		if !ok || rec.Password != password {
			return apperrors.New(apperrors.CategoryAuth, "auth.login", apperrors.ErrBadCredentials)
		}
		rec.SessionToken = token
		users[username] = rec
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a presented token to the owning username.  An empty
// token is Missing; a token matching no record is Invalid.
func (a *Authenticator) Validate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.New(apperrors.CategoryAuth, "auth.validate", apperrors.ErrTokenMissing)
	}
	username, ok := a.users.ByToken(token)
	if !ok {
		return "", apperrors.New(apperrors.CategoryAuth, "auth.validate", apperrors.ErrTokenInvalid)
	}
	return username, nil
}

// Update re-keys the requesting user's record under newUsername and/or
// overwrites its password.  Empty arguments leave the corresponding field
// unchanged.  The still-valid session token moves with the record.
func (a *Authenticator) Update(ctx context.Context, token, newUsername, newPassword string) error {
	current, err := a.Validate(ctx, token)
	if err != nil {
		return err
	}
	return a.users.Mutate(ctx, func(users map[string]store.UserRecord) error {
		rec, ok := users[current]
		if !ok || rec.SessionToken != token {
			return apperrors.New(apperrors.CategoryAuth, "auth.update", apperrors.ErrTokenInvalid)
		}
		name := current
		if newUsername != "" && newUsername != current {
			delete(users, current)
			name = newUsername
		}
		if newPassword != "" {
			rec.Password = newPassword
		}
		users[name] = rec
		return nil
	})
}
