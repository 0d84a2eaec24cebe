package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymordomo/apperr"
	"paymordomo/models"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	txs := []models.Transaction{
		{ID: "t1", UserID: "u1", Description: "Salário", Amount: 3000, Type: models.TransactionIncome, Date: day},
		{ID: "t2", UserID: "u1", Description: "Mercado", Amount: 400, Type: models.TransactionExpense, Date: day.AddDate(0, 0, 1)},
		{ID: "t3", UserID: "u2", Description: "Outro", Amount: 1, Type: models.TransactionIncome, Date: day},
	}
	require.NoError(t, m.Insert(ctx, TableTransactions, &txs))

	var got []models.Transaction
	require.NoError(t, m.Select(ctx, TableTransactions, ByUser("u1"), &got, OrderBy("date", true)))
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, models.TransactionExpense, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())

	n, err := m.Count(ctx, TableTransactions, ByUser("u1").With("type", models.TransactionIncome))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = m.Update(ctx, TableTransactions, ByUser("u1").With("id", "t1"), map[string]any{"amount": 3500.0})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var one models.Transaction
	require.NoError(t, m.SelectOne(ctx, TableTransactions, ByUser("u1").With("id", "t1"), &one))
	assert.Equal(t, 3500.0, one.Amount)

	n, err = m.Delete(ctx, TableTransactions, ByUser("u1"), "t1", "t3")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "t3 belongs to another user")

	err = m.SelectOne(ctx, TableTransactions, ByUser("u1").With("id", "t1"), &one)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMemoryUniqueBadgeNames(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Insert(ctx, TableBadges, &[]models.Badge{{ID: "b1", UserID: "u1", Name: "First Step"}}))
	err := m.Insert(ctx, TableBadges, &[]models.Badge{
		{ID: "b2", UserID: "u1", Name: "Sower"},
		{ID: "b3", UserID: "u1", Name: "First Step"},
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	n, _ := m.Count(ctx, TableBadges, ByUser("u1"))
	assert.EqualValues(t, 1, n, "failed batch leaves nothing behind")

	require.NoError(t, m.Insert(ctx, TableBadges, &[]models.Badge{{ID: "b4", UserID: "u2", Name: "First Step"}}))
}

func TestMemoryKeepsPasswordHash(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, TableUsers, &models.User{ID: "u1", Email: "1@x", Phone: "1", PasswordHash: "h"}))

	var u models.User
	require.NoError(t, m.SelectOne(ctx, TableUsers, Filter{"email": "1@x"}, &u))
	assert.Equal(t, "h", u.PasswordHash)
}

func TestMemoryAfterAndPointerDeadline(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := at.AddDate(1, 0, 0)

	require.NoError(t, m.Insert(ctx, TableBadges, &[]models.Badge{
		{ID: "b1", UserID: "u1", Name: "A", AwardedAt: at},
		{ID: "b2", UserID: "u1", Name: "B", AwardedAt: at.Add(time.Hour)},
	}))
	var newer []models.Badge
	require.NoError(t, m.Select(ctx, TableBadges, ByUser("u1"), &newer, After("awarded_at", at)))
	require.Len(t, newer, 1)
	assert.Equal(t, "B", newer[0].Name)

	require.NoError(t, m.Insert(ctx, TableGoals, &models.Goal{ID: "g1", UserID: "u1", Target: 10, Deadline: &deadline}))
	require.NoError(t, m.Insert(ctx, TableGoals, &models.Goal{ID: "g2", UserID: "u1", Target: 10}))
	var goals []models.Goal
	require.NoError(t, m.Select(ctx, TableGoals, ByUser("u1"), &goals, OrderBy("id", false)))
	require.Len(t, goals, 2)
	require.NotNil(t, goals[0].Deadline)
	assert.True(t, deadline.Equal(*goals[0].Deadline))
	assert.Nil(t, goals[1].Deadline)
}

func TestMemoryScopingGuard(t *testing.T) {
	var goals []models.Goal
	err := NewMemory().Select(context.Background(), TableGoals, nil, &goals)
	assert.ErrorIs(t, err, ErrUnscoped)
}
