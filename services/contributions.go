package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/models"
	"paymordomo/store"
)

// DefaultTithePercent is used by the calculator when no percent is given.
const DefaultTithePercent = 10.0

type ContributionInput struct {
	Description string  `json:"description" validate:"max=200"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Type        string  `json:"type" validate:"contrib_type"`
	Status      string  `json:"status" validate:"omitempty,contrib_stat"`
	PaidAmount  float64 `json:"paid_amount" validate:"gte=0"`
	Date        string  `json:"date" validate:"omitempty,datestr"`
}

type ContributionSummary struct {
	Tithes            float64 `json:"tithes"`
	Offerings         float64 `json:"offerings"`
	Given             float64 `json:"given"`
	ThisMonth         float64 `json:"this_month"`
	Remaining         float64 `json:"remaining"`
	ConsecutiveMonths int     `json:"consecutive_months"`
}

type ContributionList struct {
	Items   []models.Contribution `json:"items"`
	Summary ContributionSummary   `json:"summary"`
	Verses  []Verse               `json:"verses"`
}

type ContributionService struct {
	Rows   store.Rows
	Badges BadgeSyncer
	Log    *zap.Logger
	Now    func() time.Time
}

func NewContributionService(rows store.Rows, badges BadgeSyncer, log *zap.Logger) *ContributionService {
	return &ContributionService{Rows: rows, Badges: badges, Log: orNop(log), Now: time.Now}
}

// TitheFor is income * percent / 100. A non-positive percent means the
// default 10%.
func TitheFor(income, percent float64) float64 {
	if percent <= 0 {
		percent = DefaultTithePercent
	}
	return round2(income * percent / 100)
}

// paidAmount applies the status rules: paid means the full amount, pending
// means nothing, partial keeps what the user entered.
func paidAmount(in ContributionInput) (models.ContributionStatus, float64, error) {
	status := models.ContributionStatus(in.Status)
	if status == "" {
		status = models.ContributionPaid
	}
	switch status {
	case models.ContributionPaid:
		return status, in.Amount, nil
	case models.ContributionPending:
		return status, 0, nil
	}
	if in.PaidAmount > in.Amount {
		return "", 0, apperr.Invalid(map[string]string{"paid_amount": "Valor pago maior que o valor total"})
	}
	return status, in.PaidAmount, nil
}

// SummarizeContributions totals paid amounts. ConsecutiveMonths counts
// calendar months with a paid tithe, walking back from the current month
// (or the previous one if nothing was given yet this month).
func SummarizeContributions(items []models.Contribution, now time.Time) ContributionSummary {
	var s ContributionSummary
	months := map[string]bool{}
	for _, c := range items {
		switch c.Type {
		case models.ContributionTithe:
			s.Tithes += c.PaidAmount
			if c.PaidAmount > 0 {
				months[c.Date.Format("2006-01")] = true
			}
		case models.ContributionOffering:
			s.Offerings += c.PaidAmount
		}
		if sameMonth(c.Date, now) {
			s.ThisMonth += c.PaidAmount
		}
		s.Remaining += c.Remaining()
	}
	s.Given = s.Tithes + s.Offerings

	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if !months[cursor.Format("2006-01")] {
		cursor = cursor.AddDate(0, -1, 0)
	}
	for months[cursor.Format("2006-01")] {
		s.ConsecutiveMonths++
		cursor = cursor.AddDate(0, -1, 0)
	}
	return s
}

func (s *ContributionService) List(ctx context.Context, userID, typ string) (ContributionList, error) {
	filter := store.ByUser(userID)
	if wanted(typ) {
		filter = filter.With("type", typ)
	}
	var items []models.Contribution
	if err := s.Rows.Select(ctx, store.TableContributions, filter, &items, store.OrderBy("date", true)); err != nil {
		return ContributionList{}, err
	}
	return ContributionList{Items: items, Summary: SummarizeContributions(items, s.Now()), Verses: TitheVerses}, nil
}

func (s *ContributionService) Get(ctx context.Context, userID, id string) (*models.Contribution, error) {
	var c models.Contribution
	if err := s.Rows.SelectOne(ctx, store.TableContributions, store.ByUser(userID).With("id", id), &c); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Contribuição não encontrada")
		}
		return nil, err
	}
	return &c, nil
}

func defaultDescription(in ContributionInput, date time.Time) string {
	if d := strings.TrimSpace(in.Description); d != "" {
		return d
	}
	label := "Oferta"
	if models.ContributionType(in.Type) == models.ContributionTithe {
		label = "Dízimo"
	}
	return label + " " + date.Format("01/2006")
}

func (s *ContributionService) Create(ctx context.Context, userID string, in ContributionInput) (*models.Contribution, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	status, paid, err := paidAmount(in)
	if err != nil {
		return nil, err
	}
	date := parseDate(in.Date, s.Now())
	c := &models.Contribution{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: defaultDescription(in, date),
		Amount:      in.Amount,
		Type:        models.ContributionType(in.Type),
		Status:      status,
		PaidAmount:  paid,
		Date:        date,
	}
	if err := s.Rows.Insert(ctx, store.TableContributions, c); err != nil {
		return nil, err
	}
	s.Log.Info("contribution created", zap.String("user_id", userID), zap.String("id", c.ID), zap.String("type", in.Type))
	syncBadges(ctx, s.Badges, s.Log, userID)
	return c, nil
}

func (s *ContributionService) Update(ctx context.Context, userID, id string, in ContributionInput) (*models.Contribution, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	status, paid, err := paidAmount(in)
	if err != nil {
		return nil, err
	}
	date := parseDate(in.Date, s.Now())
	n, err := s.Rows.Update(ctx, store.TableContributions, store.ByUser(userID).With("id", id), map[string]any{
		"description": defaultDescription(in, date),
		"amount":      in.Amount,
		"type":        in.Type,
		"status":      string(status),
		"paid_amount": paid,
		"date":        date,
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("Contribuição não encontrada")
	}
	syncBadges(ctx, s.Badges, s.Log, userID)
	return s.Get(ctx, userID, id)
}

func (s *ContributionService) Delete(ctx context.Context, userID, id string) error {
	n, err := s.Rows.Delete(ctx, store.TableContributions, store.ByUser(userID), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Contribuição não encontrada")
	}
	s.Log.Info("contribution deleted", zap.String("user_id", userID), zap.String("id", id))
	syncBadges(ctx, s.Badges, s.Log, userID)
	return nil
}
