// Package models defines the persistent records the settlement pipeline reads
// and writes through the row-oriented data API.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Race represents a race card entry in the system. The off time is stored in
// the feed's half-day "HH:MM" format and must be normalized with the racetime
// package before any chronological comparison.
type Race struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	Course    string    `json:"course" validate:"required"`
	OffTime   string    `json:"off_time" validate:"required"`
	RaceDate  string    `json:"race_date" validate:"required,datetime=2006-01-02"`
	CreatedAt time.Time `json:"created_at"`
}

// RaceResult is the authoritative summary fetched from the results provider.
// Created once per race, never updated.
type RaceResult struct {
	ID        uuid.UUID `json:"id"`
	RaceID    uuid.UUID `json:"race_id" validate:"required"`
	Course    string    `json:"course"`
	Going     string    `json:"going"`
	RaceClass string    `json:"race_class"`
	Distance  string    `json:"distance"`
	CreatedAt time.Time `json:"created_at"`
}

// RaceRunner is the per-horse actual outcome for a settled race. One row per
// horse per race, immutable once inserted.
type RaceRunner struct {
	ID            uuid.UUID  `json:"id"`
	RaceID        uuid.UUID  `json:"race_id" validate:"required"`
	HorseID       *uuid.UUID `json:"horse_id"`
	HorseName     string     `json:"horse_name" validate:"required"`
	Position      int        `json:"position" validate:"gte=0"`
	StartingPrice string     `json:"starting_price"`
	Jockey        string     `json:"jockey"`
	Trainer       string     `json:"trainer"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsWinner reports whether the runner finished first.
func (r *RaceRunner) IsWinner() bool {
	return r.Position == 1
}

// WinnerOf returns the winning runner from a result set, or nil when no
// runner carries position 1 (void or abandoned races).
func WinnerOf(runners []*RaceRunner) *RaceRunner {
	for _, r := range runners {
		if r.IsWinner() {
			return r
		}
	}
	return nil
}
