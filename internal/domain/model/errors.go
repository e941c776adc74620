package model

import (
	"errors"
)

// Sentinel kinds for match validation errors. These allow errors.Is/As from callers.
var (
	ErrTooFewTeams         = errors.New("match needs at least two teams")
	ErrEmptyTeam           = errors.New("team has no members")
	ErrBlankCompetitor     = errors.New("blank competitor id")
	ErrDuplicateCompetitor = errors.New("competitor listed more than once in match")
	ErrMalformedRanks      = errors.New("malformed rank structure")
	ErrInvalidTimestamp    = errors.New("invalid match timestamp")
)
