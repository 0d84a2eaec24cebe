package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paymordomo/gamification"
	"paymordomo/models"
	"paymordomo/session"
	"paymordomo/store"
)

type mockSyncer struct{ mock.Mock }

func (m *mockSyncer) SyncUser(ctx context.Context, userID string) (gamification.Result, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(gamification.Result), args.Error(1)
}

func seedUsers(t *testing.T, rows *store.Memory, ids ...string) {
	for i, id := range ids {
		require.NoError(t, rows.Insert(context.Background(), store.TableUsers, &models.User{
			ID: id, Name: id, Phone: "1198765432" + string(rune('0'+i)), Email: id + "@paymordomo.local",
		}))
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	rows := store.NewMemory()
	seedUsers(t, rows, "a", "b", "c")

	m := new(mockSyncer)
	m.On("SyncUser", mock.Anything, "a").Return(gamification.Result{}, nil)
	m.On("SyncUser", mock.Anything, "b").Return(gamification.Result{}, errors.New("boom"))
	m.On("SyncUser", mock.Anything, "c").Return(gamification.Result{Deleted: []string{"x"}}, nil)

	failed, err := NewBadgeResync(rows, m, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	m.AssertNumberOfCalls(t, "SyncUser", 3)
}

func TestRunOnceAwardsWithRealEngine(t *testing.T) {
	rows := store.NewMemory()
	seedUsers(t, rows, "u1")
	ctx := context.Background()
	require.NoError(t, rows.Insert(ctx, store.TableTransactions, &models.Transaction{
		ID: "t1", UserID: "u1", Description: "Salário", Amount: 100, Type: models.TransactionIncome, Date: time.Now(),
	}))

	engine := gamification.NewEngine(gamification.StoreSource{Rows: rows}, session.ContextProvider{}, nil)
	_, err := NewBadgeResync(rows, engine, nil).RunOnce(ctx)
	require.NoError(t, err)

	var badges []models.Badge
	require.NoError(t, rows.Select(ctx, store.TableBadges, store.ByUser("u1"), &badges))
	require.Len(t, badges, 1)
	assert.Equal(t, "First Step", badges[0].Name)
}

func TestRunOnceStopsOnCancel(t *testing.T) {
	rows := store.NewMemory()
	seedUsers(t, rows, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBadgeResync(rows, new(mockSyncer), nil).RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
