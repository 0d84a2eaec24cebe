package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/format"
	"paymordomo/models"
	"paymordomo/store"
)

type GoalInput struct {
	Name        string  `json:"name" validate:"notblank,max=120"`
	Description string  `json:"description" validate:"max=500"`
	Current     float64 `json:"current" validate:"gte=0"`
	Target      float64 `json:"target" validate:"gt=0"`
	Deadline    string  `json:"deadline" validate:"omitempty,datestr"`
	Icon        string  `json:"icon" validate:"max=16"`
	Category    string  `json:"category" validate:"max=60"`
	Priority    string  `json:"priority" validate:"omitempty,priority"`
}

// GoalView is a goal with its derived progress.
type GoalView struct {
	models.Goal
	Percentage    float64 `json:"percentage"`
	Reached       bool    `json:"reached"`
	ProgressText  string  `json:"progress_text"`
	DaysRemaining string  `json:"days_remaining,omitempty"`
}

type GoalSummary struct {
	Active    int     `json:"active"`
	Completed int     `json:"completed"`
	Overall   float64 `json:"overall"`
}

type GoalList struct {
	Items   []GoalView  `json:"items"`
	Summary GoalSummary `json:"summary"`
}

type GoalService struct {
	Rows   store.Rows
	Badges BadgeSyncer
	Log    *zap.Logger
	Now    func() time.Time
}

func NewGoalService(rows store.Rows, badges BadgeSyncer, log *zap.Logger) *GoalService {
	return &GoalService{Rows: rows, Badges: badges, Log: orNop(log), Now: time.Now}
}

func ViewGoal(g models.Goal, now time.Time) GoalView {
	v := GoalView{
		Goal:         g,
		Percentage:   g.Percentage(),
		Reached:      g.Reached(),
		ProgressText: format.Progress(g.Current, g.Target).Text,
	}
	if g.Deadline != nil {
		v.DaysRemaining = format.DaysRemaining(*g.Deadline, now)
	}
	return v
}

// Summarize counts active and completed goals. Overall is the mean of the
// capped percentages, 0 with no goals.
func Summarize(goals []models.Goal) GoalSummary {
	var s GoalSummary
	if len(goals) == 0 {
		return s
	}
	var sum float64
	for _, g := range goals {
		if g.Reached() {
			s.Completed++
		} else {
			s.Active++
		}
		sum += g.Percentage()
	}
	s.Overall = sum / float64(len(goals))
	return s
}

func (s *GoalService) load(ctx context.Context, userID string) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.Rows.Select(ctx, store.TableGoals, store.ByUser(userID), &goals, store.OrderBy("created_at", false))
	return goals, err
}

func (s *GoalService) List(ctx context.Context, userID string) (GoalList, error) {
	goals, err := s.load(ctx, userID)
	if err != nil {
		return GoalList{}, err
	}
	now := s.Now()
	items := make([]GoalView, len(goals))
	for i, g := range goals {
		items[i] = ViewGoal(g, now)
	}
	return GoalList{Items: items, Summary: Summarize(goals)}, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (*GoalView, error) {
	var g models.Goal
	if err := s.Rows.SelectOne(ctx, store.TableGoals, store.ByUser(userID).With("id", id), &g); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Meta não encontrada")
		}
		return nil, err
	}
	v := ViewGoal(g, s.Now())
	return &v, nil
}

func (s *GoalService) deadline(in GoalInput) *time.Time {
	if in.Deadline == "" {
		return nil
	}
	d := parseDate(in.Deadline, s.Now())
	return &d
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*GoalView, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	g := &models.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Current:     in.Current,
		Target:      in.Target,
		Deadline:    s.deadline(in),
		Icon:        iconOrDefault(in.Icon),
		Category:    in.Category,
		Priority:    priorityOrDefault(in.Priority),
	}
	if err := s.Rows.Insert(ctx, store.TableGoals, g); err != nil {
		return nil, err
	}
	s.Log.Info("goal created", zap.String("user_id", userID), zap.String("id", g.ID))
	syncBadges(ctx, s.Badges, s.Log, userID)
	v := ViewGoal(*g, s.Now())
	return &v, nil
}

func (s *GoalService) Update(ctx context.Context, userID, id string, in GoalInput) (*GoalView, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	n, err := s.Rows.Update(ctx, store.TableGoals, store.ByUser(userID).With("id", id), map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"current":     in.Current,
		"target":      in.Target,
		"deadline":    s.deadline(in),
		"icon":        iconOrDefault(in.Icon),
		"category":    in.Category,
		"priority":    string(priorityOrDefault(in.Priority)),
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("Meta não encontrada")
	}
	syncBadges(ctx, s.Badges, s.Log, userID)
	return s.Get(ctx, userID, id)
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	n, err := s.Rows.Delete(ctx, store.TableGoals, store.ByUser(userID), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Meta não encontrada")
	}
	s.Log.Info("goal deleted", zap.String("user_id", userID), zap.String("id", id))
	syncBadges(ctx, s.Badges, s.Log, userID)
	return nil
}

func iconOrDefault(icon string) string {
	if strings.TrimSpace(icon) == "" {
		return models.DefaultGoalIcon
	}
	return icon
}

func priorityOrDefault(p string) models.GoalPriority {
	if p == "" {
		return models.PriorityMedium
	}
	return models.GoalPriority(p)
}
