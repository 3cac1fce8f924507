// Package domain contains the core data types for the dispatch board.
// This package has zero external dependencies beyond uuid and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
)

// Day is a normalized service-day token: one of the seven weekday names
// in lowercase, or DayAll, the wildcard that applies to every day.
// Legacy route records carry no day of their own and are treated as DayAll.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"

	// DayAll is the day-agnostic wildcard. An owner scoped to DayAll is in
	// scope for every specific-day query in addition to that day's owners.
	DayAll Day = "all"
)

// ParseDay normalizes a raw day token (case-insensitive, surrounding
// whitespace ignored). Returns ErrValidation for anything that is not a
// weekday name or the "all" wildcard.
func ParseDay(raw string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday, DayAll:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown day token %q", ErrValidation, raw)
}

// Wildcard reports whether d is the day-agnostic wildcard.
func (d Day) Wildcard() bool { return d == DayAll }

// InScope reports whether a record scoped to day d participates in an
// operation scoped to query. A wildcard on either side matches everything.
func (d Day) InScope(query Day) bool {
	return d == query || d == DayAll || query == DayAll
}
