package services

import (
	"context"
	"strings"
	"time"

	"github.com/gosimple/unidecode"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/gamification"
	"paymordomo/validate"
)

// BadgeSyncer re-evaluates a user's badges after their data changes.
type BadgeSyncer interface {
	SyncUser(ctx context.Context, userID string) (gamification.Result, error)
}

// syncBadges is best-effort: the mutation that triggered it already
// succeeded, so a failure is only logged.
func syncBadges(ctx context.Context, b BadgeSyncer, log *zap.Logger, userID string) {
	if b == nil {
		return
	}
	res, err := b.SyncUser(ctx, userID)
	if err != nil {
		log.Warn("badge sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(res.Inserted) > 0 || len(res.Deleted) > 0 {
		log.Debug("badges updated", zap.String("user_id", userID),
			zap.Int("inserted", len(res.Inserted)), zap.Int("deleted", len(res.Deleted)))
	}
}

func checkInput(v any) error {
	if errs := validate.Struct(v); len(errs) > 0 {
		return apperr.Invalid(errs)
	}
	return nil
}

// parseDate reads a YYYY-MM-DD value, defaulting to today.
func parseDate(s string, now time.Time) time.Time {
	if t, err := time.ParseInLocation(validate.DateLayout, s, now.Location()); err == nil {
		return t
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// foldEqual compares ignoring case and accents ("saude" matches "Saúde").
func foldEqual(a, b string) bool {
	return strings.EqualFold(unidecode.Unidecode(strings.TrimSpace(a)), unidecode.Unidecode(strings.TrimSpace(b)))
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
