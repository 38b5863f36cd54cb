// Package service implements the race-result ingestion and settlement
// pipeline: finding pending races, fetching results under the provider rate
// limit, propagating outcomes, settling bets and maintaining the model
// accuracy ledger.
package service

import "time"

// Clock abstracts wall time so the whole pipeline can run in tests with a
// fixed instant and zero real delay.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }
