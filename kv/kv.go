// Package kv is the namespaced key/value layer used for session caching and
// small per-user preferences.
package kv

import (
	"context"
	"errors"
	"time"

	"paymordomo/models"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("kv: key not found")

// Store keeps JSON-encoded values under a namespace. Keys passed in and
// returned are always un-prefixed.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

func userKey(sid string) string  { return "user:" + sid }
func tokenKey(sid string) string { return "token:" + sid }

// Rotation names the per-user index kept for the dashboard carousels.
type Rotation string

const (
	RotationVerse Rotation = "verse"
	RotationTip   Rotation = "tip"
)

func rotationKey(r Rotation, userID string) string {
	return "last_" + string(r) + ":" + userID
}

// PutSession caches the user record and token for a session id.
func PutSession(ctx context.Context, s Store, sid, token string, u *models.User, ttl time.Duration) error {
	if err := s.Set(ctx, userKey(sid), u, ttl); err != nil {
		return err
	}
	return s.Set(ctx, tokenKey(sid), token, ttl)
}

// SessionUser returns the cached user for sid, or ErrMiss.
func SessionUser(ctx context.Context, s Store, sid string) (*models.User, error) {
	var u models.User
	if err := s.Get(ctx, userKey(sid), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func SessionToken(ctx context.Context, s Store, sid string) (string, error) {
	var tok string
	err := s.Get(ctx, tokenKey(sid), &tok)
	return tok, err
}

// DropSession removes both session entries. Missing keys are not an error.
func DropSession(ctx context.Context, s Store, sid string) error {
	if err := s.Remove(ctx, userKey(sid)); err != nil {
		return err
	}
	return s.Remove(ctx, tokenKey(sid))
}

// Index reads a rotation index; absent means 0.
func Index(ctx context.Context, s Store, r Rotation, userID string) (int, error) {
	var i int
	err := s.Get(ctx, rotationKey(r, userID), &i)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	return i, err
}

func SetIndex(ctx context.Context, s Store, r Rotation, userID string, i int) error {
	return s.Set(ctx, rotationKey(r, userID), i, 0)
}

func revokedKey(sid string) string { return "revoked:" + sid }

// Revoke drops the session and remembers sid as logged out for ttl.
func Revoke(ctx context.Context, s Store, sid string, ttl time.Duration) error {
	if err := DropSession(ctx, s, sid); err != nil {
		return err
	}
	return s.Set(ctx, revokedKey(sid), true, ttl)
}

func Revoked(ctx context.Context, s Store, sid string) (bool, error) {
	return s.Has(ctx, revokedKey(sid))
}
