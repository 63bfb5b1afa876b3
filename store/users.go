package store

import (
	"context"
	"sync"
)

// UserRecord is the stored per-user document.  The password is stored
// verbatim and the session token in the clear: this mirrors the wire and
// disk contract the service inherited and is a known design weakness, not an
// invitation to depend on it.
type UserRecord struct {
	Password     string `json:"password"`
	SessionToken string `json:"csrfToken,omitempty"`
}

// Users is the user collection keyed by username, with an in-memory
// token→username index maintained alongside the document.  Mutations hold the
// Users mutex across the whole save-then-reindex sequence, so index updates
// land in the same order as the saves they reflect and can never be
// overwritten by a staler snapshot; lookups through the index are
// observationally identical to a linear scan over all records.
type Users struct {
	col *Collection[map[string]UserRecord]

	// mu guards byToken and orders index swaps with collection saves.
	mu      sync.RWMutex
	byToken map[string]string
}

// NewUsers opens (or creates) the user collection at path.
func NewUsers(ctx context.Context, path string) (*Users, error) {
	col, err := NewCollection(path, func() map[string]UserRecord {
		return map[string]UserRecord{}
	})
	if err != nil {
		return nil, err
	}

	all, err := col.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Users{col: col, byToken: buildTokenIndex(all)}, nil
}

// All returns the full user collection.
func (u *Users) All(ctx context.Context) (map[string]UserRecord, error) {
	return u.col.Load(ctx)
}

// Get returns a single user record.
func (u *Users) Get(ctx context.Context, username string) (UserRecord, bool, error) {
	all, err := u.col.Load(ctx)
	if err != nil {
		return UserRecord{}, false, err
	}
	rec, ok := all[username]
	return rec, ok, nil
}

// ByToken resolves a session token to its owning username.
func (u *Users) ByToken(token string) (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	username, ok := u.byToken[token]
	return username, ok
}

// Mutate applies fn to the collection under the collection mutex, persists
// the result, and refreshes the token index before any later mutation can
// run.  fn mutates the map in place; returning an error aborts without
// writing.  When Mutate returns nil, every token fn stored is resolvable
// through ByToken.
func (u *Users) Mutate(ctx context.Context, fn func(users map[string]UserRecord) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var snapshot map[string]UserRecord
	err := u.col.Update(ctx, func(users map[string]UserRecord) (map[string]UserRecord, error) {
		if err := fn(users); err != nil {
			return nil, err
		}
		snapshot = users
		return users, nil
	})
	if err != nil {
		return err
	}
	u.byToken = buildTokenIndex(snapshot)
	return nil
}

func buildTokenIndex(users map[string]UserRecord) map[string]string {
	idx := make(map[string]string, len(users))
	for name, rec := range users {
		if rec.SessionToken != "" {
			idx[rec.SessionToken] = name
		}
	}
	return idx
}
