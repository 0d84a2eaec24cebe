// Package gamification awards and revokes badges from a user's financial
// activity and derives the steward level shown on the dashboard.
package gamification

import (
	"paymordomo/models"
)

// Metric selects one aggregate from Metrics.
type Metric string

const (
	MetricTransactions  Metric = "transactions"
	MetricIncome        Metric = "income_transactions"
	MetricContributions Metric = "contributions"
	MetricOfferings     Metric = "offerings"
	MetricGoalsReached  Metric = "goals_reached"
	MetricNetSavings    Metric = "net_savings"
)

// Rule awards the badge Name while its metric is at or above Threshold.
// Name is the badge identity per user.
type Rule struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Metric      Metric  `json:"metric"`
	Threshold   float64 `json:"threshold"`
}

func (r Rule) Met(m Metrics) bool {
	return m.Value(r.Metric) >= r.Threshold
}

// Rules is evaluated in this order; results list badges in the same order.
var Rules = []Rule{
	{Name: "First Step", Description: "Recorded first transaction", Icon: "🌱", Metric: MetricTransactions, Threshold: 1},
	{Name: "Firstfruits", Description: "Made first tithe/offering", Icon: "🙏", Metric: MetricContributions, Threshold: 1},
	{Name: "Diligent", Description: "Reached 3 financial goals", Icon: "🎯", Metric: MetricGoalsReached, Threshold: 3},
	{Name: "Sower", Description: "Recorded 10 income entries", Icon: "🌾", Metric: MetricIncome, Threshold: 10},
	{Name: "Generous Heart", Description: "Made 12 voluntary offerings", Icon: "💝", Metric: MetricOfferings, Threshold: 12},
	{Name: "Master Saver", Description: "Accumulated 10,000 in net savings", Icon: "💎", Metric: MetricNetSavings, Threshold: 10000},
}

// Metrics are the per-user aggregates the rules look at.
type Metrics struct {
	Transactions  int     `json:"transactions"`
	Income        int     `json:"income_transactions"`
	NetSavings    float64 `json:"net_savings"`
	Contributions int     `json:"contributions"`
	Tithes        int     `json:"tithes"`
	Offerings     int     `json:"offerings"`
	GoalsReached  int     `json:"goals_reached"`
}

func (m Metrics) Value(metric Metric) float64 {
	switch metric {
	case MetricTransactions:
		return float64(m.Transactions)
	case MetricIncome:
		return float64(m.Income)
	case MetricContributions:
		return float64(m.Contributions)
	case MetricOfferings:
		return float64(m.Offerings)
	case MetricGoalsReached:
		return float64(m.GoalsReached)
	case MetricNetSavings:
		return m.NetSavings
	}
	return 0
}

// Compute derives Metrics from a user's rows.
func Compute(txs []models.Transaction, contribs []models.Contribution, goals []models.Goal) Metrics {
	var m Metrics
	m.Transactions = len(txs)
	for _, t := range txs {
		if t.Type == models.TransactionIncome {
			m.Income++
		}
		m.NetSavings += t.Signed()
	}
	m.Contributions = len(contribs)
	for _, c := range contribs {
		switch c.Type {
		case models.ContributionTithe:
			m.Tithes++
		case models.ContributionOffering:
			m.Offerings++
		}
	}
	for _, g := range goals {
		if g.Reached() {
			m.GoalsReached++
		}
	}
	return m
}
