package session

import (
	"context"

	"paymordomo/models"
)

type userKey struct{}

// Provider resolves the user the current request acts for.
type Provider interface {
	CurrentUser(ctx context.Context) (*models.User, bool)
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// ContextProvider reads the user placed by WithUser.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil && u.ID != ""
}

// UserID is a shortcut returning "" when no user is attached.
func UserID(ctx context.Context) string {
	if u, ok := (ContextProvider{}).CurrentUser(ctx); ok {
		return u.ID
	}
	return ""
}
