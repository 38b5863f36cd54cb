package models

import (
	"time"

	"github.com/google/uuid"
)

// Selection is a user's saved pick for a race. It never transitions state;
// the propagator only annotates it with the finishing position.
type Selection struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	RaceID            uuid.UUID  `json:"race_id" validate:"required"`
	HorseID           *uuid.UUID `json:"horse_id"`
	HorseName         string     `json:"horse_name" validate:"required"`
	FinishingPosition *int       `json:"finishing_position"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ShortlistItem is a watch-list entry referencing a race and horse, annotated
// with the finishing position after settlement like a Selection.
type ShortlistItem struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	RaceID            uuid.UUID  `json:"race_id" validate:"required"`
	HorseID           *uuid.UUID `json:"horse_id"`
	HorseName         string     `json:"horse_name" validate:"required"`
	FinishingPosition *int       `json:"finishing_position"`
	CreatedAt         time.Time  `json:"created_at"`
}
