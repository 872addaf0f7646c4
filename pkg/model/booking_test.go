package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayBucket(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "utc midnight is a fixed point",
			input: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "utc afternoon truncates",
			input: time.Date(2026, 9, 12, 14, 45, 3, 0, time.UTC),
			want:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "late IST evening stays on the same utc day",
			input: time.Date(2026, 9, 12, 23, 30, 0, 0, ist),
			want:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "early IST morning falls on the previous utc day",
			input: time.Date(2026, 9, 12, 4, 0, 0, 0, ist),
			want:  time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayBucket(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("DayBucket(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDayBucket_Idempotent(t *testing.T) {
	in := time.Date(2026, 9, 12, 14, 45, 3, 0, time.UTC)
	once := DayBucket(in)
	twice := DayBucket(once)
	if !once.Equal(twice) {
		t.Errorf("DayBucket not idempotent: %v vs %v", once, twice)
	}
}

func TestDayBucket_SameDayDifferentRepresentations(t *testing.T) {
	// Same instant expressed in two timezones must bucket identically.
	utc := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	ist := utc.In(time.FixedZone("IST", 5*3600+1800))

	if !DayBucket(utc).Equal(DayBucket(ist)) {
		t.Errorf("same instant bucketed differently: %v vs %v", DayBucket(utc), DayBucket(ist))
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "rfc3339",
			payload: `"2026-09-12T06:00:00Z"`,
			want:    time.Date(2026, 9, 12, 6, 0, 0, 0, time.UTC),
		},
		{
			name:    "bare date",
			payload: `"2026-09-12"`,
			want:    time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "rfc3339 with offset",
			payload: `"2026-09-12T23:30:00+05:30"`,
			want:    time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			payload: `"12/09/2026"`,
			wantErr: true,
		},
		{
			name:    "not a string",
			payload: `20260912`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.payload), &d)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !d.Time.Equal(tt.want) {
				t.Errorf("got %v, want %v", d.Time, tt.want)
			}
		})
	}
}

func TestBooking_Attendees(t *testing.T) {
	b := &Booking{
		Adults: []Attendee{
			{Name: "Ravi Kumar", Age: 34, Gender: GenderMale},
			{Name: "Sita Kumar", Age: 31, Gender: GenderFemale},
		},
		Children: []Attendee{
			{Name: "Arya Kumar", Age: 6, Gender: GenderFemale},
		},
	}
	if got := b.Attendees(); got != 3 {
		t.Errorf("Attendees() = %d, want 3", got)
	}
}

func TestReservationLockID(t *testing.T) {
	day := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	id := ReservationLockID("64a0000000000000000000a1", day)
	if id != "reservation_lock_64a0000000000000000000a1_2026-09-12" {
		t.Errorf("unexpected lock id %q", id)
	}

	// Any instant within the day must map to the same lock.
	later := time.Date(2026, 9, 12, 19, 15, 0, 0, time.UTC)
	if other := ReservationLockID("64a0000000000000000000a1", later); other != id {
		t.Errorf("lock id differs within one day: %q vs %q", other, id)
	}
}
