package model

import "time"

// DarshanType is a bookable category of temple visit. DailyLimit caps the
// number of non-cancelled bookings across all of its slots for any single
// calendar date.
type DarshanType struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TempleID   string    `json:"temple_id" bson:"temple_id" validate:"required,mongodb"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Price      int64     `json:"price" bson:"price" validate:"min=0"`
	DailyLimit int       `json:"daily_limit" bson:"daily_limit" validate:"required,min=1"`
	Active     bool      `json:"active" bson:"active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// DarshanSlot is a recurring daily time window under a DarshanType.
// StartTime and EndTime are wall-clock "HH:MM" strings with no date
// component; MaxBookings is the capacity for each calendar date the slot
// is offered.
type DarshanSlot struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DarshanID   string    `json:"darshan_id" bson:"darshan_id" validate:"required,mongodb"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,slot_time"`
	EndTime     string    `json:"end_time" bson:"end_time" validate:"required,slot_time"`
	MaxBookings int       `json:"max_bookings" bson:"max_bookings" validate:"required,min=1"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// SlotAvailability is the per-slot view returned by an availability query.
type SlotAvailability struct {
	SlotID      string `json:"slot_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxBookings int    `json:"max_bookings"`
	Booked      int    `json:"booked"`
	Available   int    `json:"available"`
	IsAvailable bool   `json:"is_available"`
}

// DateAvailability aggregates slot availability for one darshan type on
// one calendar date.
type DateAvailability struct {
	DarshanID            string             `json:"darshan_id"`
	Date                 time.Time          `json:"date"`
	Slots                []SlotAvailability `json:"slots"`
	DailyLimit           int                `json:"daily_limit"`
	TotalBookingsForDate int                `json:"total_bookings_for_date"`
}
