// Package signal computes the ranking score for a problem from its
// engagement counters. The score is pure arithmetic over a counter snapshot
// and an age; persistence and concurrency live elsewhere.
package signal

import (
	"math"
	"time"
)

// Counters is a snapshot of a problem's engagement state.
type Counters struct {
	Relates          int
	Comments         int
	UniqueCommenters int
}

// Weights applied to each engagement signal. Unique commenters are the
// strongest signal: distinct people corroborating beats raw volume.
const (
	relateWeight          = 2.0
	commentWeight         = 1.5
	uniqueCommenterWeight = 3.0
)

// Time decay: linear from 1.0 down to decayFloor over decayWindowHours.
// The floor keeps old high-engagement problems above brand-new empty ones.
const (
	decayWindowHours = 168.0
	decayFloor       = 0.5
)

// FrequencyWeight maps a frequency class to an urgency multiplier for the
// pain level. Unrecognized classes count as rare.
func FrequencyWeight(frequency string) int {
	switch frequency {
	case "daily":
		return 4
	case "weekly":
		return 3
	case "monthly":
		return 2
	default:
		return 1
	}
}

// Score computes the signal score for a problem created at createdAt, as
// seen at now. Deterministic: identical inputs always produce identical
// output. A createdAt in the future (clock skew) counts as zero age.
func Score(c Counters, painLevel int, frequency string, createdAt, now time.Time) float64 {
	base := float64(c.Relates)*relateWeight +
		float64(c.Comments)*commentWeight +
		float64(c.UniqueCommenters)*uniqueCommenterWeight +
		float64(painLevel*FrequencyWeight(frequency))

	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	decay := 1 - ageHours/decayWindowHours
	if decay < decayFloor {
		decay = decayFloor
	}

	return math.Round(base*decay*100) / 100
}
