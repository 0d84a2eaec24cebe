package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"paymordomo/gamification"
	"paymordomo/models"
	"paymordomo/store"
)

type Syncer interface {
	SyncUser(ctx context.Context, userID string) (gamification.Result, error)
}

// BadgeResync re-runs the badge rules for every user. It catches rows that
// changed outside the API, such as imports or manual fixes.
type BadgeResync struct {
	Rows   store.Rows
	Engine Syncer
	Log    *zap.Logger
}

func NewBadgeResync(rows store.Rows, engine Syncer, log *zap.Logger) *BadgeResync {
	if log == nil {
		log = zap.NewNop()
	}
	return &BadgeResync{Rows: rows, Engine: engine, Log: log}
}

// RunOnce syncs all users sequentially and returns how many failed.
func (w *BadgeResync) RunOnce(ctx context.Context) (int, error) {
	var users []models.User
	if err := w.Rows.Select(ctx, store.TableUsers, store.Filter{}, &users, store.OrderBy("created_at", false)); err != nil {
		return 0, err
	}

	failed := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		res, err := w.Engine.SyncUser(ctx, u.ID)
		if err != nil {
			failed++
			w.Log.Warn("badge resync failed", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		if len(res.Inserted) > 0 || len(res.Deleted) > 0 {
			w.Log.Info("badges resynced",
				zap.String("user_id", u.ID),
				zap.Int("inserted", len(res.Inserted)),
				zap.Int("deleted", len(res.Deleted)))
		}
	}
	w.Log.Info("badge resync finished", zap.Int("users", len(users)), zap.Int("failed", failed))
	return failed, nil
}

// Start schedules RunOnce every interval. A run still in progress makes the
// next tick skip. Call Shutdown on the returned scheduler.
func (w *BadgeResync) Start(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(ctx); err != nil {
				w.Log.Error("badge resync aborted", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("badge-resync"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
