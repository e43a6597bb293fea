package processors

import (
	"sort"

	"github.com/username/tradefolio/backend/src/models"
)

type DailySummaryProcessor struct{}

func NewDailySummaryProcessor() *DailySummaryProcessor {
	return &DailySummaryProcessor{}
}

// Calculate groups trades by entry calendar day for the calendar view.
// Summaries come back sorted by date ascending.
func (p *DailySummaryProcessor) Calculate(trades []models.Trade) []models.DailySummary {
	byDay := make(map[string]*models.DailySummary)
	for _, trade := range trades {
		day := trade.Timestamp.Format("2006-01-02")
		summary, exists := byDay[day]
		if !exists {
			summary = &models.DailySummary{Date: day}
			byDay[day] = summary
		}
		summary.TradeCount++
		summary.TotalPL += trade.RealizedPL
		if trade.RealizedPL >= 0 {
			summary.WinCount++
		} else {
			summary.LossCount++
		}
	}

	summaries := make([]models.DailySummary, 0, len(byDay))
	for _, summary := range byDay {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date < summaries[j].Date
	})
	return summaries
}

// Stats computes the headline dashboard numbers plus best/worst day over the
// daily summaries.
func (p *DailySummaryProcessor) Stats(trades []models.Trade) models.DashboardStats {
	var stats models.DashboardStats
	var grossProfit, grossLoss float64

	for _, trade := range trades {
		stats.TotalTrades++
		stats.TotalPL += trade.RealizedPL
		if trade.RealizedPL >= 0 {
			stats.WinCount++
			grossProfit += trade.RealizedPL
		} else {
			stats.LossCount++
			grossLoss += -trade.RealizedPL
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinCount) / float64(stats.TotalTrades)
	}
	if stats.WinCount > 0 {
		stats.AvgWin = grossProfit / float64(stats.WinCount)
	}
	if stats.LossCount > 0 {
		stats.AvgLoss = grossLoss / float64(stats.LossCount)
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossProfit / grossLoss
	}

	for i, day := range p.Calculate(trades) {
		if i == 0 || day.TotalPL > stats.BestDayPL {
			stats.BestDay = day.Date
			stats.BestDayPL = day.TotalPL
		}
		if i == 0 || day.TotalPL < stats.WorstDayPL {
			stats.WorstDay = day.Date
			stats.WorstDayPL = day.TotalPL
		}
	}
	return stats
}
