package agg

import "time"

// Bounds of the nominal weight range.
const (
	MinWeight = 1.0
	MaxWeight = 2.0
)

// secondsPerDay is the decay horizon of the recency weight.
const secondsPerDay = 86400.0

// Weight returns the recency weight of an event that happened at eventTime,
// as seen from now. It is 2.0 at zero elapsed time, 1.0 after exactly one day,
// and keeps decreasing below 1.0 for older events.
//
// now is converted into the location of eventTime before subtracting so that
// zone differences never leak into the result.
func Weight(now, eventTime time.Time) float64 {
	elapsed := now.In(eventTime.Location()).Sub(eventTime).Seconds()
	return 1.0 + (1.0 - elapsed/secondsPerDay)
}

// Weigher computes recency weights, optionally clamped to [MinWeight, MaxWeight].
type Weigher struct {
	Clamp bool
}

// Weigh returns the weight for eventTime relative to now.
func (w Weigher) Weigh(now, eventTime time.Time) float64 {
	v := Weight(now, eventTime)
	if !w.Clamp {
		return v
	}
	return min(max(v, MinWeight), MaxWeight)
}
