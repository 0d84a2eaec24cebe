package models

import "time"

type ContributionType string

const (
	ContributionTithe    ContributionType = "tithe"
	ContributionOffering ContributionType = "offering"
)

type ContributionStatus string

const (
	ContributionPaid    ContributionStatus = "paid"
	ContributionPartial ContributionStatus = "partial"
	ContributionPending ContributionStatus = "pending"
)

// Contribution is a tithe or offering record.
type Contribution struct {
	ID          string             `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string             `gorm:"index;not null" json:"user_id"`
	Description string             `json:"description"`
	Amount      float64            `gorm:"not null" json:"amount"`
	Type        ContributionType   `gorm:"type:varchar(16);not null;index" json:"type"`
	Status      ContributionStatus `gorm:"type:varchar(16);not null;default:'paid'" json:"status"`
	PaidAmount  float64            `json:"paid_amount"`
	Date        time.Time          `gorm:"index" json:"date"`

	Timestamps
}

func (Contribution) TableName() string { return "contributions" }

// Remaining is what is still owed on a partial or pending record.
func (c Contribution) Remaining() float64 {
	r := c.Amount - c.PaidAmount
	if r < 0 {
		return 0
	}
	return r
}
