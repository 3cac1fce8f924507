package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotMember is one owner's entry in a route-run snapshot: the
// owner's identity, display attributes, and its ordered stop list as it
// stood at capture time. The JSON tags are the persisted jsonb layout
// and must not change — member order and stop order round-trip as-is.
type SnapshotMember struct {
	OwnerID   string   `json:"ownerId"`
	OwnerName string   `json:"ownerName"`
	Color     string   `json:"color"`
	StopIDs   []string `json:"stopIds"`
}

// RouteRunSnapshot is a point-in-time capture of the full owner→stops
// partition for one day. Members holds one entry per owner that had at
// least one member stop at capture time; owners with empty lists are
// deliberately omitted, and Restore treats "absent from snapshot" as
// "should end up empty".
type RouteRunSnapshot struct {
	ID         uuid.UUID
	Day        Day
	CapturedAt time.Time
	Members    []SnapshotMember
}

// CaptureMode selects how Capture stores the partition it records.
type CaptureMode string

const (
	// CaptureNew always inserts a fresh snapshot.
	CaptureNew CaptureMode = "new"
	// CaptureUpdateLatest overwrites the most recently captured snapshot
	// for the day, creating one if none exists yet.
	CaptureUpdateLatest CaptureMode = "updateLatest"
	// CaptureUpdateByID overwrites a specific snapshot, which must belong
	// to the day being captured.
	CaptureUpdateByID CaptureMode = "updateId"
)

// ParseCaptureMode validates a raw mode token from the wire.
func ParseCaptureMode(raw string) (CaptureMode, error) {
	switch m := CaptureMode(raw); m {
	case CaptureNew, CaptureUpdateLatest, CaptureUpdateByID:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown capture mode %q", ErrValidation, raw)
}
