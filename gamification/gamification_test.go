package gamification

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paymordomo/apperr"
	"paymordomo/models"
	"paymordomo/session"
)

type fakeSource struct {
	txs      []models.Transaction
	contribs []models.Contribution
	goals    []models.Goal
	badges   []models.Badge
	reads    int
	writes   int
}

func (f *fakeSource) Transactions(context.Context, string) ([]models.Transaction, error) {
	f.reads++
	return f.txs, nil
}

func (f *fakeSource) Contributions(context.Context, string) ([]models.Contribution, error) {
	f.reads++
	return f.contribs, nil
}

func (f *fakeSource) Goals(context.Context, string) ([]models.Goal, error) {
	f.reads++
	return f.goals, nil
}

func (f *fakeSource) Badges(context.Context, string) ([]models.Badge, error) {
	f.reads++
	return append([]models.Badge(nil), f.badges...), nil
}

func (f *fakeSource) InsertBadges(_ context.Context, _ string, badges []models.Badge) error {
	f.writes++
	f.badges = append(f.badges, badges...)
	return nil
}

func (f *fakeSource) DeleteBadges(_ context.Context, _ string, ids []string) error {
	f.writes++
	f.badges = without(f.badges, ids)
	return nil
}

func userCtx() context.Context {
	return session.WithUser(context.Background(), &models.User{ID: "u1"})
}

func newTestEngine(src Source) *Engine {
	e := NewEngine(src, session.ContextProvider{}, nil)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return e
}

func names(badges []models.Badge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.Name
	}
	return out
}

func TestFreshUserStagesNothing(t *testing.T) {
	src := &fakeSource{}
	res, err := newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)

	assert.Empty(t, res.Inserted)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, 0, res.Level.Index)
	assert.Equal(t, "Aprendiz de Mordomo", res.Level.Name)
	assert.Zero(t, res.Level.Progress)
	assert.Zero(t, src.writes)
}

func TestFirstTransactionAwardsFirstStep(t *testing.T) {
	src := &fakeSource{txs: []models.Transaction{{ID: "t1", Type: models.TransactionIncome, Amount: 50}}}
	res, err := newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)

	assert.Equal(t, []string{"First Step"}, names(res.Inserted))
	assert.Equal(t, "u1", res.Inserted[0].UserID)
	assert.NotEmpty(t, res.Inserted[0].ID)
	assert.Equal(t, "🌱", res.Inserted[0].Icon)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 0, res.Level.Index)
	assert.Equal(t, 50.0, res.Level.Progress)
}

func TestRevokedWhenTransactionsRemoved(t *testing.T) {
	src := &fakeSource{badges: []models.Badge{{ID: "b1", UserID: "u1", Name: "First Step"}}}
	res, err := newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)

	assert.Empty(t, res.Inserted)
	assert.Equal(t, []string{"b1"}, res.Deleted)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, src.badges)
}

func TestMasterSaverBoundaryIsInclusive(t *testing.T) {
	src := &fakeSource{txs: []models.Transaction{
		{Type: models.TransactionIncome, Amount: 12000},
		{Type: models.TransactionExpense, Amount: 2000},
	}}
	res, err := newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)
	assert.Equal(t, 10000.0, res.Metrics.NetSavings)
	assert.Contains(t, names(res.Inserted), "Master Saver")

	src = &fakeSource{txs: []models.Transaction{{Type: models.TransactionIncome, Amount: 9999.99}}}
	res, err = newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)
	assert.NotContains(t, names(res.Inserted), "Master Saver")
}

func TestSecondRunIsIdempotent(t *testing.T) {
	src := &fakeSource{
		txs:      []models.Transaction{{Type: models.TransactionIncome, Amount: 100}},
		contribs: []models.Contribution{{Type: models.ContributionTithe, Amount: 10}},
	}
	e := newTestEngine(src)

	first, err := e.Sync(userCtx())
	require.NoError(t, err)
	assert.Equal(t, []string{"First Step", "Firstfruits"}, names(first.Inserted))
	assert.Equal(t, 1, first.Level.Index)
	assert.Zero(t, first.Level.Progress)

	writes := src.writes
	second, err := e.Sync(userCtx())
	require.NoError(t, err)
	assert.Empty(t, second.Inserted)
	assert.Empty(t, second.Deleted)
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, writes, src.writes)
}

func TestNoSessionIsNoop(t *testing.T) {
	src := &fakeSource{txs: []models.Transaction{{Type: models.TransactionIncome, Amount: 1}}}
	res, err := newTestEngine(src).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, src.reads)
	assert.Zero(t, src.writes)
}

func TestAllRulesAwardedInOrder(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 10; i++ {
		src.txs = append(src.txs, models.Transaction{Type: models.TransactionIncome, Amount: 1000})
	}
	for i := 0; i < 12; i++ {
		src.contribs = append(src.contribs, models.Contribution{Type: models.ContributionOffering, Amount: 5})
	}
	for i := 0; i < 3; i++ {
		src.goals = append(src.goals, models.Goal{Current: 100, Target: 100})
	}

	res, err := newTestEngine(src).Sync(userCtx())
	require.NoError(t, err)
	assert.Equal(t, []string{"First Step", "Firstfruits", "Diligent", "Sower", "Generous Heart", "Master Saver"}, names(res.Inserted))
	assert.Equal(t, 6, res.Count)
	assert.Equal(t, 3, res.Level.Index)
	assert.Equal(t, "Administrador Zeloso", res.Level.Name)
}

// Random activity that only grows must never revoke a badge, and the badge
// set must never hold the same name twice.
func TestGrowingMetricsNeverRevokeAndStayUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	src := &fakeSource{}
	e := newTestEngine(src)

	for step := 0; step < 60; step++ {
		switch rng.Intn(4) {
		case 0:
			src.txs = append(src.txs, models.Transaction{Type: models.TransactionIncome, Amount: float64(rng.Intn(900) + 100)})
		case 1:
			src.contribs = append(src.contribs, models.Contribution{Type: models.ContributionOffering, Amount: 10})
		case 2:
			src.goals = append(src.goals, models.Goal{Current: 10, Target: 10})
		case 3:
			src.contribs = append(src.contribs, models.Contribution{Type: models.ContributionTithe, Amount: 10})
		}

		res, err := e.Sync(userCtx())
		require.NoError(t, err)
		assert.Empty(t, res.Deleted)

		seen := map[string]bool{}
		for _, b := range src.badges {
			assert.False(t, seen[b.Name], "duplicate badge %s", b.Name)
			seen[b.Name] = true
		}
		assert.Equal(t, len(src.badges), res.Count)
	}
}

func TestLevelBounds(t *testing.T) {
	for n := -3; n <= 50; n++ {
		l := LevelFor(n)
		assert.GreaterOrEqual(t, l.Index, 0)
		assert.LessOrEqual(t, l.Index, 9)
		assert.GreaterOrEqual(t, l.Progress, 0.0)
		assert.Less(t, l.Progress, 100.0)
		assert.Equal(t, LevelNames[l.Index], l.Name)
	}
	assert.Equal(t, "Mordomo Fiel e Prudente", LevelFor(20).Name)
	assert.Equal(t, 9, LevelFor(1000).Index)
	assert.Len(t, LevelNames, 10)
}

func TestEvaluateIsPure(t *testing.T) {
	now := time.Now()
	m := Metrics{Transactions: 1}
	existing := []models.Badge{{ID: "b9", Name: "Sower"}}

	p1 := Evaluate(m, existing, "u1", now)
	p2 := Evaluate(m, existing, "u1", now)
	assert.Equal(t, p1, p2)
	assert.Equal(t, []string{"b9"}, p1.Deletes)
	assert.Equal(t, "First Step", p1.Inserts[0].Name)
	assert.Empty(t, p1.Inserts[0].ID)
}

func TestCatalogFor(t *testing.T) {
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	cat := CatalogFor(Metrics{Transactions: 4, NetSavings: 250}, []models.Badge{{Name: "First Step", AwardedAt: at}})
	require.Len(t, cat, len(Rules))
	assert.True(t, cat[0].Unlocked)
	assert.Equal(t, at, *cat[0].AwardedAt)
	assert.Equal(t, 4.0, cat[0].Value)
	assert.False(t, cat[5].Unlocked)
	assert.Equal(t, 250.0, cat[5].Value)
}

func TestEngineCatalogWithoutUser(t *testing.T) {
	cat, err := newTestEngine(&fakeSource{}).Catalog(context.Background())
	require.NoError(t, err)
	for _, a := range cat {
		assert.False(t, a.Unlocked)
	}
}

type mockSource struct{ mock.Mock }

func (m *mockSource) Transactions(ctx context.Context, uid string) ([]models.Transaction, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockSource) Contributions(ctx context.Context, uid string) ([]models.Contribution, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Contribution), args.Error(1)
}

func (m *mockSource) Goals(ctx context.Context, uid string) ([]models.Goal, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Goal), args.Error(1)
}

func (m *mockSource) Badges(ctx context.Context, uid string) ([]models.Badge, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Badge), args.Error(1)
}

func (m *mockSource) InsertBadges(ctx context.Context, uid string, badges []models.Badge) error {
	return m.Called(ctx, uid, badges).Error(0)
}

func (m *mockSource) DeleteBadges(ctx context.Context, uid string, ids []string) error {
	return m.Called(ctx, uid, ids).Error(0)
}

// Holds Diligent and a stale Sower badge, and has just earned First Step.
func mixedSource() *mockSource {
	src := new(mockSource)
	src.On("Transactions", mock.Anything, "u1").Return([]models.Transaction{{Type: models.TransactionExpense, Amount: 5}}, nil)
	src.On("Contributions", mock.Anything, "u1").Return([]models.Contribution{}, nil)
	src.On("Goals", mock.Anything, "u1").Return([]models.Goal{{Current: 1, Target: 1}, {Current: 2, Target: 2}, {Current: 3, Target: 3}}, nil)
	src.On("Badges", mock.Anything, "u1").Return([]models.Badge{{ID: "d1", Name: "Diligent"}, {ID: "stale", Name: "Sower"}}, nil)
	return src
}

func TestInsertFailureSkipsDeletes(t *testing.T) {
	src := mixedSource()
	src.On("InsertBadges", mock.Anything, "u1", mock.Anything).Return(errors.New("unique violation"))

	res, err := newTestEngine(src).Sync(userCtx())
	require.Error(t, err)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Empty(t, res.Inserted)
	assert.Equal(t, 2, res.Count)
	src.AssertNotCalled(t, "DeleteBadges", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteFailureKeepsInserts(t *testing.T) {
	src := mixedSource()
	src.On("InsertBadges", mock.Anything, "u1", mock.Anything).Return(nil)
	src.On("DeleteBadges", mock.Anything, "u1", []string{"stale"}).Return(errors.New("timeout"))

	res, err := newTestEngine(src).Sync(userCtx())
	require.Error(t, err)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Equal(t, []string{"First Step"}, names(res.Inserted))
	assert.Empty(t, res.Deleted)
	assert.Equal(t, 3, res.Count)
	src.AssertExpectations(t)
}

func TestLoadFailureIsStoreError(t *testing.T) {
	src := new(mockSource)
	src.On("Transactions", mock.Anything, "u1").Return([]models.Transaction(nil), errors.New("offline"))

	_, err := newTestEngine(src).Sync(userCtx())
	require.Error(t, err)
	assert.Equal(t, "Erro ao carregar transações", apperr.MessageOf(err))
	src.AssertNotCalled(t, "InsertBadges", mock.Anything, mock.Anything, mock.Anything)
}
