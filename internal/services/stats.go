package services

import "sync/atomic"

// Counters exported on /metrics.
var (
	rotationsTotal         atomic.Int64
	rotationFailuresTotal  atomic.Int64
	rotationRacesLostTotal atomic.Int64
	updatesTotal           atomic.Int64
	unauthorizedTotal      atomic.Int64
)

type StatsSnapshot struct {
	Rotations         int64
	RotationFailures  int64
	RotationRacesLost int64
	Updates           int64
	Unauthorized      int64
}

func GetStats() StatsSnapshot {
	return StatsSnapshot{
		Rotations:         rotationsTotal.Load(),
		RotationFailures:  rotationFailuresTotal.Load(),
		RotationRacesLost: rotationRacesLostTotal.Load(),
		Updates:           updatesTotal.Load(),
		Unauthorized:      unauthorizedTotal.Load(),
	}
}

func recordUpdate()       { updatesTotal.Add(1) }
func recordUnauthorized() { unauthorizedTotal.Add(1) }
