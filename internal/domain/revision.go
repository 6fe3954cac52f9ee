package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevisionKind is the kind of change recorded in a booking revision.
type RevisionKind string

const (
	RevisionInsert RevisionKind = "INSERT"
	RevisionUpdate RevisionKind = "UPDATE"
	RevisionDelete RevisionKind = "DELETE"
)

// Revision is one row of a booking's change history. For INSERT and UPDATE
// the fields hold the new values; for DELETE they hold the values removed.
// Revisions are written by the database, never by application code.
type Revision struct {
	ID         int64        `json:"id"`
	BookingID  uuid.UUID    `json:"booking_id"`
	Kind       RevisionKind `json:"kind"`
	Interval   Interval     `json:"interval"`
	Owner      string       `json:"owner"`
	WasherUses int          `json:"washer_uses"`
	DryerUses  int          `json:"dryer_uses"`
	RecordedAt time.Time    `json:"recorded_at"`
}
