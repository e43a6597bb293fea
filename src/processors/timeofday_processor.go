package processors

import "github.com/username/tradefolio/backend/src/models"

type TimeOfDayProcessor struct{}

func NewTimeOfDayProcessor() *TimeOfDayProcessor {
	return &TimeOfDayProcessor{}
}

// Calculate buckets trades by entry hour. Only hours with at least one trade
// are returned, in hour order, so the chart does not render 24 empty bars.
func (p *TimeOfDayProcessor) Calculate(trades []models.Trade) []models.HourlyBucket {
	var byHour [24]models.HourlyBucket
	var wins [24]int

	for _, trade := range trades {
		hour := trade.Timestamp.Hour()
		byHour[hour].Hour = hour
		byHour[hour].TradeCount++
		byHour[hour].TotalPL += trade.RealizedPL
		if trade.RealizedPL >= 0 {
			wins[hour]++
		}
	}

	var buckets []models.HourlyBucket
	for hour, bucket := range byHour {
		if bucket.TradeCount == 0 {
			continue
		}
		bucket.AvgPL = bucket.TotalPL / float64(bucket.TradeCount)
		bucket.WinRate = float64(wins[hour]) / float64(bucket.TradeCount)
		buckets = append(buckets, bucket)
	}
	return buckets
}
