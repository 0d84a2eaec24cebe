package models

import "time"

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// TransactionCategories is the fixed category list offered by the UI.
var TransactionCategories = []string{
	"Alimentação", "Moradia", "Transporte", "Saúde",
	"Educação", "Lazer", "Espiritual", "Renda", "Renda Extra",
}

// Transaction is an income or expense entry. Amount is always positive;
// the sign comes from Type.
type Transaction struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Description string          `gorm:"not null" json:"description"`
	Amount      float64         `gorm:"not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(16);not null;index" json:"type"`
	Category    string          `gorm:"type:varchar(64)" json:"category"`
	Payee       string          `json:"payee"`
	Date        time.Time       `gorm:"index" json:"date"`
	ReceiptKey  string          `json:"receipt_key,omitempty"`

	Timestamps
}

func (Transaction) TableName() string { return "transactions" }

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() float64 {
	if t.Type == TransactionExpense {
		return -t.Amount
	}
	return t.Amount
}
