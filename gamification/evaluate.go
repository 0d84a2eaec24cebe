package gamification

import (
	"time"

	"paymordomo/models"
)

// Plan is the badge delta for one user. Inserts carry no ID yet.
type Plan struct {
	Inserts []models.Badge
	Deletes []string
}

func (p Plan) Empty() bool { return len(p.Inserts) == 0 && len(p.Deletes) == 0 }

// Evaluate compares every rule against m and the user's existing badges.
// A met rule with no badge stages an insert; an unmet rule with a badge
// stages deletion of every row carrying that name.
func Evaluate(m Metrics, existing []models.Badge, userID string, now time.Time) Plan {
	byName := make(map[string][]models.Badge, len(existing))
	for _, b := range existing {
		byName[b.Name] = append(byName[b.Name], b)
	}

	var p Plan
	for _, r := range Rules {
		held := byName[r.Name]
		switch met := r.Met(m); {
		case met && len(held) == 0:
			p.Inserts = append(p.Inserts, models.Badge{
				UserID:      userID,
				Name:        r.Name,
				Description: r.Description,
				Icon:        r.Icon,
				AwardedAt:   now,
			})
		case !met:
			for _, b := range held {
				p.Deletes = append(p.Deletes, b.ID)
			}
		}
	}
	return p
}

// Achievement is one rule as shown in the achievements grid.
type Achievement struct {
	Rule
	Value     float64    `json:"value"`
	Unlocked  bool       `json:"unlocked"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

// CatalogFor lists every rule with the user's progress toward it. Unlocked
// follows the stored badges, not the metric.
func CatalogFor(m Metrics, badges []models.Badge) []Achievement {
	held := make(map[string]models.Badge, len(badges))
	for _, b := range badges {
		held[b.Name] = b
	}
	out := make([]Achievement, len(Rules))
	for i, r := range Rules {
		a := Achievement{Rule: r, Value: m.Value(r.Metric)}
		if b, ok := held[r.Name]; ok {
			a.Unlocked = true
			at := b.AwardedAt
			a.AwardedAt = &at
		}
		out[i] = a
	}
	return out
}
