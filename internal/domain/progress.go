package domain

// RouteProgress is one row of the read-only progress feed: an owner's
// live stop list with completion counts. Stale stop ids (stops deleted
// by order management after assignment) are filtered out before the
// counts are computed, so CompletedStops <= TotalStops == len(StopIDs).
type RouteProgress struct {
	OwnerID        string
	DisplayName    string
	ColorTag       string
	StopIDs        []string
	TotalStops     int
	CompletedStops int
}
