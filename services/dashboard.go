package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/gamification"
	"paymordomo/kv"
	"paymordomo/models"
	"paymordomo/store"
)

// MiniGoalCount is how many goals the dashboard previews.
const MiniGoalCount = 3

type IndexedVerse struct {
	Index int `json:"index"`
	Verse
}

type IndexedTip struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Dashboard struct {
	Totals
	MonthSavings  float64                    `json:"month_savings"`
	ActiveGoals   int                        `json:"active_goals"`
	GoalsReached  int                        `json:"goals_reached"`
	MiniGoals     []GoalView                 `json:"mini_goals"`
	Badges        gamification.Result        `json:"badges"`
	Level         gamification.Level         `json:"level"`
	Achievements  []gamification.Achievement `json:"achievements"`
	Verse         IndexedVerse               `json:"verse"`
	Tip           IndexedTip                 `json:"tip"`
	BadgeSyncFail string                     `json:"badge_sync_error,omitempty"`
}

type DashboardService struct {
	Rows   store.Rows
	Badges BadgeSyncer
	KV     kv.Store
	Log    *zap.Logger
	Now    func() time.Time
}

func NewDashboardService(rows store.Rows, badges BadgeSyncer, cache kv.Store, log *zap.Logger) *DashboardService {
	return &DashboardService{Rows: rows, Badges: badges, KV: cache, Log: orNop(log), Now: time.Now}
}

// MonthSavings is income minus expenses dated in now's month.
func MonthSavings(txs []models.Transaction, now time.Time) float64 {
	var v float64
	for _, tx := range txs {
		if sameMonth(tx.Date, now) {
			v += tx.Signed()
		}
	}
	return v
}

// Load assembles the dashboard. It runs a badge sync; a sync failure is
// reported in the payload rather than failing the page.
func (s *DashboardService) Load(ctx context.Context, userID string) (*Dashboard, error) {
	var txs []models.Transaction
	if err := s.Rows.Select(ctx, store.TableTransactions, store.ByUser(userID), &txs); err != nil {
		return nil, err
	}
	var goals []models.Goal
	if err := s.Rows.Select(ctx, store.TableGoals, store.ByUser(userID), &goals, store.OrderBy("created_at", false)); err != nil {
		return nil, err
	}

	now := s.Now()
	d := &Dashboard{Totals: TotalsOf(txs), MonthSavings: MonthSavings(txs, now)}
	summary := Summarize(goals)
	d.ActiveGoals, d.GoalsReached = summary.Active, summary.Completed
	for i := 0; i < len(goals) && i < MiniGoalCount; i++ {
		d.MiniGoals = append(d.MiniGoals, ViewGoal(goals[i], now))
	}

	res, err := s.Badges.SyncUser(ctx, userID)
	if err != nil {
		s.Log.Warn("dashboard badge sync failed", zap.String("user_id", userID), zap.Error(err))
		d.BadgeSyncFail = apperr.MessageOf(err)
		if res.Badges == nil {
			res = s.storedBadges(ctx, userID, txs, goals)
		}
	}
	d.Badges = res
	d.Level = gamification.LevelFor(res.Count)
	d.Achievements = gamification.CatalogFor(res.Metrics, res.Badges)

	vi, err := kv.Index(ctx, s.KV, kv.RotationVerse, userID)
	if err != nil {
		s.Log.Warn("verse index read failed", zap.Error(err))
	}
	ti, err := kv.Index(ctx, s.KV, kv.RotationTip, userID)
	if err != nil {
		s.Log.Warn("tip index read failed", zap.Error(err))
	}
	d.Verse = verseAt(vi)
	d.Tip = tipAt(ti)
	return d, nil
}

// storedBadges rebuilds a badge result from what is already saved, for when
// the sync could not even load its inputs. Nothing is awarded or revoked.
func (s *DashboardService) storedBadges(ctx context.Context, userID string, txs []models.Transaction, goals []models.Goal) gamification.Result {
	var badges []models.Badge
	if err := s.Rows.Select(ctx, store.TableBadges, store.ByUser(userID), &badges, store.OrderBy("awarded_at", false)); err != nil {
		s.Log.Warn("dashboard badge fallback failed", zap.String("user_id", userID), zap.Error(err))
		return gamification.Result{}
	}
	var contribs []models.Contribution
	if err := s.Rows.Select(ctx, store.TableContributions, store.ByUser(userID), &contribs); err != nil {
		s.Log.Warn("dashboard contributions read failed", zap.String("user_id", userID), zap.Error(err))
	}
	return gamification.Result{
		Count:   len(badges),
		Level:   gamification.LevelFor(len(badges)),
		Badges:  badges,
		Metrics: gamification.Compute(txs, contribs, goals),
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func verseAt(i int) IndexedVerse {
	i = wrap(i, len(Verses))
	return IndexedVerse{Index: i, Verse: Verses[i]}
}

func tipAt(i int) IndexedTip {
	i = wrap(i, len(Tips))
	return IndexedTip{Index: i, Text: Tips[i].Description}
}

// step moves a rotation forward (dir > 0) or backward and persists it.
func (s *DashboardService) step(ctx context.Context, r kv.Rotation, userID string, dir, n int) (int, error) {
	cur, err := kv.Index(ctx, s.KV, r, userID)
	if err != nil {
		return 0, apperr.Store("Erro ao ler preferências", err)
	}
	next := cur + 1
	if dir < 0 {
		next = cur - 1
	}
	next = wrap(next, n)
	if err := kv.SetIndex(ctx, s.KV, r, userID, next); err != nil {
		return 0, apperr.Store("Erro ao salvar preferências", err)
	}
	return next, nil
}

func (s *DashboardService) StepVerse(ctx context.Context, userID string, dir int) (IndexedVerse, error) {
	i, err := s.step(ctx, kv.RotationVerse, userID, dir, len(Verses))
	if err != nil {
		return IndexedVerse{}, err
	}
	return verseAt(i), nil
}

func (s *DashboardService) StepTip(ctx context.Context, userID string, dir int) (IndexedTip, error) {
	i, err := s.step(ctx, kv.RotationTip, userID, dir, len(Tips))
	if err != nil {
		return IndexedTip{}, err
	}
	return tipAt(i), nil
}
