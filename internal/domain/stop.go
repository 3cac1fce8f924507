package domain

import "time"

// Stop is a single delivery unit. Stops are created and deleted by the
// external order-management process; this service mutates only
// CurrentOwnerID and Completed.
//
// ExternalKey is the alternate lookup key — the id of the entity the stop
// was generated for — so callers can address a stop without knowing its
// own id. CurrentOwnerID is nil while the stop is unassigned.
type Stop struct {
	ID             string
	Day            Day
	ExternalKey    string
	CurrentOwnerID *string
	Completed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
