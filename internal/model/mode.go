package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is the one mode failure surfaced to callers; everything
// else in the reduction degrades locally.
var ErrInvalidMode = errors.New("invalid reduction mode")

// Mode selects clustering aggressiveness and constant-introduction
// strictness for a single query. It is a pure parameter, never persisted.
type Mode string

const (
	// ModeOpen merges aggressively: fewer, larger sense buckets for
	// learner-facing brevity.
	ModeOpen Mode = "open"

	// ModeSkeptic merges only above a higher threshold and only into
	// buckets backed by a primary source.
	ModeSkeptic Mode = "skeptic"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeOpen || m == ModeSkeptic
}

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return ModeOpen, nil
	case "skeptic":
		return ModeSkeptic, nil
	default:
		return "", fmt.Errorf("%w: %q (want open or skeptic)", ErrInvalidMode, s)
	}
}
