package domain

import "errors"

// ErrStopNotFound is returned when a stop key resolves to nothing within
// the requested day scope. Handlers map this to HTTP 404.
var ErrStopNotFound = errors.New("stop not found")

// ErrOwnerNotFound is returned when an owner id matches neither the
// day-scoped driver collection nor the legacy route collection.
// Handlers map this to HTTP 404 — an unknown owner is never a silent no-op.
var ErrOwnerNotFound = errors.New("owner not found")

// ErrSnapshotNotFound is returned when a route-run snapshot id does not
// exist, or does not belong to the requested day. Handlers map this to 404.
var ErrSnapshotNotFound = errors.New("route run not found")

// ErrSnapshotFormat is returned when a persisted snapshot member payload
// cannot be decoded. Handlers map this to HTTP 400.
var ErrSnapshotFormat = errors.New("invalid snapshot format")

// ErrValidation is returned when input fails business rule validation
// (missing required field, malformed day token, unknown capture mode).
// Handlers map this to HTTP 400.
var ErrValidation = errors.New("validation error")
