package model

import (
	"fmt"
	"time"
)

// ReservationLock is an advisory lock serializing reservation attempts
// for one (darshan, date) pair. The daily cap couples every slot of a
// darshan type, so the lock is scoped to the darshan rather than the
// slot. Acquisition is a unique _id insert; a TTL index on expires_at
// reaps locks leaked by crashed requests.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ReservationLockID builds the lock key for a darshan type and a day
// bucket.
func ReservationLockID(darshanID string, date time.Time) string {
	return fmt.Sprintf("reservation_lock_%s_%s", darshanID, date.UTC().Format("2006-01-02"))
}
