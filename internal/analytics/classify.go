package analytics

import (
	"time"

	"cwhub/pkg/contracts/domain"
)

const (
	trendUpThreshold   = 10.0
	trendDownThreshold = -10.0
	tierHighRatio      = 1.5
	tierLowRatio       = 0.75
	trendWindowDays    = 7
)

// windowMean averages a metric over the records whose period end falls in
// [from, to), counting only the days that reported the metric.
func windowMean(records []domain.HistoryRecord, metric string, from, to time.Time) float64 {
	var total float64
	var days int
	for _, rec := range records {
		end := dayKey(rec.PeriodEnd)
		if end.Before(from) || !end.Before(to) {
			continue
		}
		if v, ok := rec.Values[metric]; ok {
			total += v
			days++
		}
	}
	if days == 0 {
		return 0
	}
	return total / float64(days)
}

// RecentMean returns the entity's trailing 7-day mean of a metric, the value
// both trend and tier classification are built on.
func RecentMean(records []domain.HistoryRecord, metric string, now time.Time) float64 {
	day := dayKey(now)
	return windowMean(records, metric, day.AddDate(0, 0, -(trendWindowDays-1)), day.AddDate(0, 0, 1))
}

// Classify computes the trend and tier verdict for one entity from its
// daily history. populationMean is the mean of the same trailing-window
// value across all entities with a positive value; pass 0 when unknown and
// the tier comes back none.
func Classify(records []domain.HistoryRecord, metric string, now time.Time, populationMean float64) domain.TrafficClassification {
	day := dayKey(now)
	recentFrom := day.AddDate(0, 0, -(trendWindowDays - 1))
	recentTo := day.AddDate(0, 0, 1)
	previousFrom := recentFrom.AddDate(0, 0, -trendWindowDays)

	recent := windowMean(records, metric, recentFrom, recentTo)
	previous := windowMean(records, metric, previousFrom, recentFrom)

	c := domain.TrafficClassification{Trend: domain.TrendStable}
	if previous > 0 {
		c.TrendPct = (recent - previous) / previous * 100
		switch {
		case c.TrendPct > trendUpThreshold:
			c.Trend = domain.TrendUp
		case c.TrendPct < trendDownThreshold:
			c.Trend = domain.TrendDown
		}
	}

	c.Tier = ClassifyTier(recent, populationMean)
	return c
}

// ClassifyTier buckets a value against the population mean: high above
// 1.5x, low below 0.75x, medium between, none when either side is
// non-positive.
func ClassifyTier(value, populationMean float64) domain.Tier {
	if value <= 0 || populationMean <= 0 {
		return domain.TierNone
	}
	ratio := value / populationMean
	switch {
	case ratio > tierHighRatio:
		return domain.TierHigh
	case ratio < tierLowRatio:
		return domain.TierLow
	default:
		return domain.TierMedium
	}
}

// PopulationMean averages the positive values of a cohort. Entities with a
// non-positive value do not drag the baseline down.
func PopulationMean(values []float64) float64 {
	var total float64
	var count int
	for _, v := range values {
		if v > 0 {
			total += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
