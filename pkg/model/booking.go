package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type PrimaryContact struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" bson:"phone" validate:"required,e164"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

type Attendee struct {
	Name    string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Age     int    `json:"age" bson:"age" validate:"min=0,max=120"`
	Gender  Gender `json:"gender" bson:"gender" validate:"required,oneof=male female other"`
	IDProof string `json:"id_proof,omitempty" bson:"id_proof,omitempty" validate:"omitempty,max=50"`
}

// Booking is the durable reservation record. Date is always stored at UTC
// day granularity and is the bucketing key for all capacity arithmetic.
// Seats is the number of capacity-consuming attendees, fixed at creation
// under the policy active at that moment; Amount is likewise frozen, so
// later price edits never alter it.
type Booking struct {
	ID             string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DarshanID      string         `json:"darshan_id" bson:"darshan_id" validate:"required,mongodb"`
	SlotID         string         `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	TempleID       string         `json:"temple_id" bson:"temple_id" validate:"required,mongodb"`
	OwnerID        string         `json:"owner_id" bson:"owner_id" validate:"required"`
	Date           time.Time      `json:"date" bson:"date" validate:"required"`
	Status         BookingStatus  `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled completed"`
	PaymentStatus  PaymentStatus  `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending completed failed refunded"`
	PaymentRef     string         `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	ReceiptNumber  string         `json:"receipt_number" bson:"receipt_number" validate:"required"`
	PrimaryContact PrimaryContact `json:"primary_contact" bson:"primary_contact" validate:"required"`
	Adults         []Attendee     `json:"adults" bson:"adults" validate:"required,min=1,dive"`
	Children       []Attendee     `json:"children,omitempty" bson:"children,omitempty" validate:"omitempty,dive"`
	Seats          int            `json:"seats" bson:"seats" validate:"min=1"`
	Amount         int64          `json:"amount" bson:"amount" validate:"min=0"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Attendees returns the total head count, adults plus children.
func (b *Booking) Attendees() int {
	return len(b.Adults) + len(b.Children)
}

// BookingRequest is the client payload for creating a booking. OwnerID is
// filled from the verified caller identity, never from the body.
type BookingRequest struct {
	DarshanID      string         `json:"darshan_id" validate:"required,mongodb"`
	SlotID         string         `json:"slot_id" validate:"required,mongodb"`
	Date           Date           `json:"date" validate:"required"`
	OwnerID        string         `json:"-" validate:"required"`
	PrimaryContact PrimaryContact `json:"primary_contact" validate:"required"`
	Adults         []Attendee     `json:"adults" validate:"required,min=1,dive"`
	Children       []Attendee     `json:"children,omitempty" validate:"omitempty,dive"`
}

// Date accepts either an RFC 3339 timestamp or a bare "2006-01-02" value.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
		}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// PaymentUpdate carries a payment state transition posted after the
// (external) gateway resolves.
type PaymentUpdate struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=completed failed refunded"`
	PaymentRef    string        `json:"payment_ref,omitempty" validate:"omitempty,max=100"`
}

// DayBucket truncates t to its UTC calendar day. Two inputs that land on
// the same UTC day resolve to the identical bucket regardless of their
// timezone representation.
func DayBucket(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
