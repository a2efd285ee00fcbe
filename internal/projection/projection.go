// Package projection derives consumption statistics from a time-ordered
// window of balance snapshots for a single plan.
package projection

// Sample is one balance observation. Callers supply samples in
// ascending collection order.
type Sample struct {
	BalanceGB     float64
	BalanceBytes  int64
	ExpiresInDays int
}

// Result is the derived statistics object. It is computed on read and
// never persisted.
type Result struct {
	HasData bool `json:"has_data"`

	CurrentBalanceGB    float64 `json:"current_balance_gb"`
	CurrentBalanceBytes int64   `json:"current_balance_bytes"`

	AvgDailyUsageGB    float64 `json:"avg_daily_usage_gb"`
	AvgDailyUsageBytes int64   `json:"avg_daily_usage_bytes"`

	ExpiresInDays          int     `json:"expires_in_days"`
	PredictedDaysRemaining float64 `json:"predicted_days_remaining"`
}

const bytesPerGB = 1 << 30

// Project computes the average daily consumption over the window and a
// depletion estimate for the newest sample.
//
// Per-interval deltas are prev minus curr; only strictly positive
// deltas count toward the rate. Balance increases are top-ups, and a
// zero delta carries no rate information - keeping zeros would only
// dilute the average and inflate the estimate.
//
// The reported remaining days is the more pessimistic of the upstream
// expiry and balance/rate. With fewer than two samples the rate is zero
// and the upstream expiry is reported unmodified. An empty window
// yields a zero Result with HasData false.
func Project(samples []Sample) Result {
	if len(samples) == 0 {
		return Result{}
	}

	latest := samples[len(samples)-1]

	var deltas []float64
	for i := 1; i < len(samples); i++ {
		delta := samples[i-1].BalanceGB - samples[i].BalanceGB
		if delta > 0 {
			deltas = append(deltas, delta)
		}
	}

	var avg float64
	for _, d := range deltas {
		avg += d
	}
	if len(deltas) > 0 {
		avg /= float64(len(deltas))
	}

	predicted := float64(latest.ExpiresInDays)
	if avg > 0 {
		byBalance := latest.BalanceGB / avg
		if byBalance < predicted {
			predicted = byBalance
		}
	}

	return Result{
		HasData:                true,
		CurrentBalanceGB:       latest.BalanceGB,
		CurrentBalanceBytes:    latest.BalanceBytes,
		AvgDailyUsageGB:        avg,
		AvgDailyUsageBytes:     int64(avg * bytesPerGB),
		ExpiresInDays:          latest.ExpiresInDays,
		PredictedDaysRemaining: predicted,
	}
}
