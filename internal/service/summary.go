package service

import "github.com/google/uuid"

// RunOptions scopes or tunes a single pipeline invocation. All fields are
// optional; the zero value means "settle everything due today with the
// configured defaults". Field names mirror the trigger's JSON body.
type RunOptions struct {
	RaceID     *uuid.UUID `json:"race_id,omitempty"`
	TargetDate string     `json:"target_date,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	RateMs     int        `json:"rateMs,omitempty"`
}

// RaceOutcome is the per-race line in the run summary.
type RaceOutcome struct {
	RaceID  uuid.UUID `json:"race_id"`
	Success bool      `json:"success"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// RunSummary is the scheduler's response contract. A run with failures is
// still a successful run: callers read failed_count, they do not get an
// exception.
type RunSummary struct {
	Success        bool          `json:"success"`
	ProcessedCount int           `json:"processed_count"`
	ReadyCount     int           `json:"ready_count"`
	NotReadyCount  int           `json:"not_ready_count"`
	FailedCount    int           `json:"failed_count"`
	Results        []RaceOutcome `json:"results"`
}

// Outcome codes surfaced in RaceOutcome beyond the provider's own codes.
const (
	codeSaved            = "SAVED"
	codeFetchFailed      = "FETCH_FAILED"
	codeSettlementFailed = "SETTLEMENT_FAILED"
)
