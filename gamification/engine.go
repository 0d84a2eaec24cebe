package gamification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/models"
	"paymordomo/session"
)

// Result is the outcome of one sync. Badges is the user's badge set after
// the applied changes.
type Result struct {
	Inserted []models.Badge `json:"inserted"`
	Deleted  []string       `json:"deleted"`
	Count    int            `json:"count"`
	Level    Level          `json:"level"`
	Badges   []models.Badge `json:"badges"`
	Metrics  Metrics        `json:"metrics"`
}

type Engine struct {
	src      Source
	sessions session.Provider
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(src Source, sessions session.Provider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{src: src, sessions: sessions, log: log, now: time.Now}
}

// Sync runs the rules for the user attached to ctx. Without a user it does
// nothing and returns an empty result.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	u, ok := e.sessions.CurrentUser(ctx)
	if !ok {
		return Result{}, nil
	}
	return e.SyncUser(ctx, u.ID)
}

func (e *Engine) load(ctx context.Context, userID string) (Metrics, []models.Badge, error) {
	txs, err := e.src.Transactions(ctx, userID)
	if err != nil {
		return Metrics{}, nil, apperr.Store("Erro ao carregar transações", err)
	}
	contribs, err := e.src.Contributions(ctx, userID)
	if err != nil {
		return Metrics{}, nil, apperr.Store("Erro ao carregar contribuições", err)
	}
	goals, err := e.src.Goals(ctx, userID)
	if err != nil {
		return Metrics{}, nil, apperr.Store("Erro ao carregar metas", err)
	}
	badges, err := e.src.Badges(ctx, userID)
	if err != nil {
		return Metrics{}, nil, apperr.Store("Erro ao carregar conquistas", err)
	}
	return Compute(txs, contribs, goals), badges, nil
}

// SyncUser runs the rules for userID. Inserts are applied before deletes.
// A failed insert batch skips the deletes and leaves the badges untouched.
// A failed delete batch keeps the inserted badges and reports the error
// alongside a result that includes them.
func (e *Engine) SyncUser(ctx context.Context, userID string) (Result, error) {
	m, existing, err := e.load(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	plan := Evaluate(m, existing, userID, e.now())
	res := Result{Metrics: m, Count: len(existing), Level: LevelFor(len(existing)), Badges: existing}
	if plan.Empty() {
		return res, nil
	}

	if len(plan.Inserts) > 0 {
		for i := range plan.Inserts {
			plan.Inserts[i].ID = uuid.NewString()
		}
		if err := e.src.InsertBadges(ctx, userID, plan.Inserts); err != nil {
			e.log.Error("badge insert failed", zap.String("user_id", userID), zap.Int("count", len(plan.Inserts)), zap.Error(err))
			return res, apperr.Store("Erro ao registrar conquistas", err)
		}
		res.Inserted = plan.Inserts
		res.Badges = append(append([]models.Badge{}, existing...), plan.Inserts...)
		res.Count = len(existing) + len(plan.Inserts)
		res.Level = LevelFor(res.Count)
		for _, b := range plan.Inserts {
			e.log.Info("badge awarded", zap.String("user_id", userID), zap.String("badge", b.Name))
		}
	}

	if len(plan.Deletes) > 0 {
		if err := e.src.DeleteBadges(ctx, userID, plan.Deletes); err != nil {
			e.log.Error("badge delete failed", zap.String("user_id", userID), zap.Strings("ids", plan.Deletes), zap.Error(err))
			return res, apperr.Store("Erro ao remover conquistas", err)
		}
		res.Deleted = plan.Deletes
		res.Count -= len(plan.Deletes)
		res.Level = LevelFor(res.Count)
		res.Badges = without(res.Badges, plan.Deletes)
		e.log.Info("badges revoked", zap.String("user_id", userID), zap.Int("count", len(plan.Deletes)))
	}
	return res, nil
}

func without(badges []models.Badge, ids []string) []models.Badge {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make([]models.Badge, 0, len(badges))
	for _, b := range badges {
		if !drop[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// Catalog lists every rule for the current user with its unlocked state.
// Without a user every rule is locked.
func (e *Engine) Catalog(ctx context.Context) ([]Achievement, error) {
	u, ok := e.sessions.CurrentUser(ctx)
	if !ok {
		return CatalogFor(Metrics{}, nil), nil
	}
	m, badges, err := e.load(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return CatalogFor(m, badges), nil
}
