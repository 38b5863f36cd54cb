package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrNoWinner        = errors.New("result has no winning runner")
	ErrInvalidRow      = errors.New("row failed boundary validation")
	ErrUnknownModel    = errors.New("unknown prediction model")
	ErrAlreadySettled  = errors.New("bet already settled")
	ErrMissingBankroll = errors.New("no bankroll row for user")
)
