package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"paymordomo/gamification"
	"paymordomo/models"
	"paymordomo/store"
)

type BadgeOverview struct {
	Badges       []models.Badge             `json:"badges"`
	Level        gamification.Level         `json:"level"`
	Achievements []gamification.Achievement `json:"achievements"`
}

type BadgeService struct {
	Rows     store.Rows
	Engine   *gamification.Engine
	Log      *zap.Logger
	Interval time.Duration
}

func NewBadgeService(rows store.Rows, engine *gamification.Engine, log *zap.Logger) *BadgeService {
	return &BadgeService{Rows: rows, Engine: engine, Log: orNop(log), Interval: 2 * time.Second}
}

// Overview lists the current user's badges without re-running the rules.
func (s *BadgeService) Overview(ctx context.Context, userID string) (BadgeOverview, error) {
	var badges []models.Badge
	if err := s.Rows.Select(ctx, store.TableBadges, store.ByUser(userID), &badges, store.OrderBy("awarded_at", false)); err != nil {
		return BadgeOverview{}, err
	}
	cat, err := s.Engine.Catalog(ctx)
	if err != nil {
		return BadgeOverview{}, err
	}
	return BadgeOverview{Badges: badges, Level: gamification.LevelFor(len(badges)), Achievements: cat}, nil
}

// Sync runs the rules for the user attached to ctx.
func (s *BadgeService) Sync(ctx context.Context) (gamification.Result, error) {
	return s.Engine.Sync(ctx)
}

// awardedSince returns badges awarded after cursor, oldest first.
func (s *BadgeService) awardedSince(ctx context.Context, userID string, cursor time.Time) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.Rows.Select(ctx, store.TableBadges, store.ByUser(userID), &badges,
		store.After("awarded_at", cursor), store.OrderBy("awarded_at", false))
	return badges, err
}

func (s *BadgeService) latest(ctx context.Context, userID string) time.Time {
	var last []models.Badge
	err := s.Rows.Select(ctx, store.TableBadges, store.ByUser(userID), &last,
		store.OrderBy("awarded_at", true), store.Limit(1))
	if err != nil {
		s.Log.Warn("badge stream init failed", zap.String("user_id", userID), zap.Error(err))
	}
	if len(last) == 0 {
		return time.Time{}
	}
	return last[0].AwardedAt
}

// StreamSSE pushes newly awarded badges to the client as "badge" events.
func (s *BadgeService) StreamSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.ErrUnauthorized
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		cursor := s.latest(context.Background(), userID)

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				badges, err := s.awardedSince(context.Background(), userID, cursor)
				if err != nil {
					s.Log.Warn("badge stream query failed", zap.String("user_id", userID), zap.Error(err))
					continue
				}
				if len(badges) == 0 {
					// keepalive so dead clients are noticed on Flush
					w.WriteString(":\n\n")
				}
				for _, b := range badges {
					payload, _ := json.Marshal(b)
					fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload)
					cursor = b.AwardedAt
				}
				if err := w.Flush(); err != nil {
					s.Log.Debug("badge stream closed", zap.String("user_id", userID))
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
	return nil
}
