package models

import "time"

const DefaultGoalIcon = "🎯"

type GoalPriority string

const (
	PriorityHigh   GoalPriority = "high"
	PriorityMedium GoalPriority = "medium"
	PriorityLow    GoalPriority = "low"
)

// Goal is a savings target.
type Goal struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string       `gorm:"index;not null" json:"user_id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Current     float64      `json:"current"`
	Target      float64      `gorm:"not null" json:"target"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Icon        string       `gorm:"size:16" json:"icon"`
	Category    string       `json:"category"`
	Priority    GoalPriority `gorm:"type:varchar(16);default:'medium'" json:"priority"`

	Timestamps
}

func (Goal) TableName() string { return "goals" }

func (g Goal) Reached() bool { return g.Current >= g.Target }

// Percentage is current/target*100 capped at 100.
func (g Goal) Percentage() float64 {
	if g.Target <= 0 {
		return 0
	}
	p := g.Current / g.Target * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
