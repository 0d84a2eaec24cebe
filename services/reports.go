package services

import (
	"context"
	"sort"

	"paymordomo/models"
	"paymordomo/store"
)

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"`
}

type MonthTotal struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

type Report struct {
	Totals
	SavingsRate float64         `json:"savings_rate"`
	Categories  []CategoryTotal `json:"categories"`
	Monthly     []MonthTotal    `json:"monthly"`
}

type ReportService struct {
	Rows store.Rows
}

func NewReportService(rows store.Rows) *ReportService {
	return &ReportService{Rows: rows}
}

// SavingsRate is balance/income*100, 0 without income.
func SavingsRate(t Totals) float64 {
	if t.Income <= 0 {
		return 0
	}
	return t.Balance / t.Income * 100
}

// BuildReport aggregates transactions. Categories are expense-only, largest
// first; months are oldest first.
func BuildReport(txs []models.Transaction) Report {
	r := Report{Totals: TotalsOf(txs)}
	r.SavingsRate = SavingsRate(r.Totals)

	byCat := map[string]float64{}
	byMonth := map[string]*MonthTotal{}
	for _, tx := range txs {
		key := tx.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthTotal{Month: key}
			byMonth[key] = m
		}
		if tx.Type == models.TransactionIncome {
			m.Income += tx.Amount
		} else {
			m.Expenses += tx.Amount
			cat := tx.Category
			if cat == "" {
				cat = "Outros"
			}
			byCat[cat] += tx.Amount
		}
		m.Net = m.Income - m.Expenses
	}

	for cat, total := range byCat {
		ct := CategoryTotal{Category: cat, Total: total}
		if r.Expenses > 0 {
			ct.Share = total / r.Expenses * 100
		}
		r.Categories = append(r.Categories, ct)
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		if r.Categories[i].Total != r.Categories[j].Total {
			return r.Categories[i].Total > r.Categories[j].Total
		}
		return r.Categories[i].Category < r.Categories[j].Category
	})

	for _, m := range byMonth {
		r.Monthly = append(r.Monthly, *m)
	}
	sort.Slice(r.Monthly, func(i, j int) bool { return r.Monthly[i].Month < r.Monthly[j].Month })
	return r
}

func (s *ReportService) Build(ctx context.Context, userID string) (Report, error) {
	var txs []models.Transaction
	if err := s.Rows.Select(ctx, store.TableTransactions, store.ByUser(userID), &txs); err != nil {
		return Report{}, err
	}
	return BuildReport(txs), nil
}
