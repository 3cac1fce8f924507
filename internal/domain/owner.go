package domain

import (
	"slices"
	"time"
)

// OwnerSource identifies which physical collection an owner record lives
// in. Two collections hold owners — the modern day-scoped drivers table
// and the legacy day-agnostic routes table — but they form one logical id
// space. Lookups return the source so write paths target the right table
// without field sniffing.
type OwnerSource string

const (
	SourceDrivers OwnerSource = "drivers"
	SourceRoutes  OwnerSource = "routes"
)

// Owner is a driver or legacy route: a named holder of an ordered list of
// stop ids. Insertion order is delivery order and duplicates are
// forbidden. Owners are created and edited by the external planning
// process; this service rewrites MemberStopIDs (and backfills
// DisplayName/ColorTag during restore when the live record lacks them).
//
// Owners loaded from the legacy routes table carry Day == DayAll.
type Owner struct {
	ID            string
	Day           Day
	DisplayName   string
	ColorTag      string
	MemberStopIDs []string
	Source        OwnerSource
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contains reports whether the owner's member list holds stopID.
func (o Owner) Contains(stopID string) bool {
	return slices.Contains(o.MemberStopIDs, stopID)
}

// WithoutMember returns a copy of the member list with stopID removed.
// The receiver's list is not modified.
func (o Owner) WithoutMember(stopID string) []string {
	out := make([]string, 0, len(o.MemberStopIDs))
	for _, id := range o.MemberStopIDs {
		if id != stopID {
			out = append(out, id)
		}
	}
	return out
}
