package gamification

import (
	"context"

	"paymordomo/models"
	"paymordomo/store"
)

// Source is the row access the engine needs, always scoped to one user.
type Source interface {
	Transactions(ctx context.Context, userID string) ([]models.Transaction, error)
	Contributions(ctx context.Context, userID string) ([]models.Contribution, error)
	Goals(ctx context.Context, userID string) ([]models.Goal, error)
	Badges(ctx context.Context, userID string) ([]models.Badge, error)
	InsertBadges(ctx context.Context, userID string, badges []models.Badge) error
	DeleteBadges(ctx context.Context, userID string, ids []string) error
}

// StoreSource reads and writes through the row store.
type StoreSource struct {
	Rows store.Rows
}

func (s StoreSource) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.Rows.Select(ctx, store.TableTransactions, store.ByUser(userID), &out)
	return out, err
}

func (s StoreSource) Contributions(ctx context.Context, userID string) ([]models.Contribution, error) {
	var out []models.Contribution
	err := s.Rows.Select(ctx, store.TableContributions, store.ByUser(userID), &out)
	return out, err
}

func (s StoreSource) Goals(ctx context.Context, userID string) ([]models.Goal, error) {
	var out []models.Goal
	err := s.Rows.Select(ctx, store.TableGoals, store.ByUser(userID), &out)
	return out, err
}

func (s StoreSource) Badges(ctx context.Context, userID string) ([]models.Badge, error) {
	var out []models.Badge
	err := s.Rows.Select(ctx, store.TableBadges, store.ByUser(userID), &out, store.OrderBy("awarded_at", false))
	return out, err
}

func (s StoreSource) InsertBadges(ctx context.Context, _ string, badges []models.Badge) error {
	return s.Rows.Insert(ctx, store.TableBadges, &badges)
}

func (s StoreSource) DeleteBadges(ctx context.Context, userID string, ids []string) error {
	_, err := s.Rows.Delete(ctx, store.TableBadges, store.ByUser(userID), ids...)
	return err
}
