package validator

import (
	"testing"
	"time"

	"darshan/pkg/logger"
	"darshan/pkg/model"
)

func testValidator(maxAttendees int) *BookingValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewBookingValidator(log, maxAttendees)
}

func baseRequest() *model.BookingRequest {
	return &model.BookingRequest{
		DarshanID: "64a0000000000000000000a1",
		SlotID:    "64a0000000000000000000b1",
		Date:      model.Date{Time: time.Now().Add(48 * time.Hour)},
		OwnerID:   "user-123",
		PrimaryContact: model.PrimaryContact{
			Name:  "Ravi Kumar",
			Phone: "+919876543210",
		},
		Adults: []model.Attendee{
			{Name: "Ravi Kumar", Age: 34, Gender: model.GenderMale},
		},
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *model.BookingRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(req *model.BookingRequest) {},
		},
		{
			name: "valid with children",
			mutate: func(req *model.BookingRequest) {
				req.Children = []model.Attendee{
					{Name: "Arya Kumar", Age: 6, Gender: model.GenderFemale},
				}
			},
		},
		{
			name: "missing darshan id",
			mutate: func(req *model.BookingRequest) {
				req.DarshanID = ""
			},
			wantErr: true,
		},
		{
			name: "malformed slot id",
			mutate: func(req *model.BookingRequest) {
				req.SlotID = "not-an-object-id"
			},
			wantErr: true,
		},
		{
			name: "zero date",
			mutate: func(req *model.BookingRequest) {
				req.Date = model.Date{}
			},
			wantErr: true,
		},
		{
			name: "no adults",
			mutate: func(req *model.BookingRequest) {
				req.Adults = nil
			},
			wantErr: true,
		},
		{
			name: "adult below eighteen",
			mutate: func(req *model.BookingRequest) {
				req.Adults[0].Age = 17
			},
			wantErr: true,
		},
		{
			name: "child above seventeen",
			mutate: func(req *model.BookingRequest) {
				req.Children = []model.Attendee{
					{Name: "Dev Kumar", Age: 18, Gender: model.GenderMale},
				}
			},
			wantErr: true,
		},
		{
			name: "phone not E.164",
			mutate: func(req *model.BookingRequest) {
				req.PrimaryContact.Phone = "9876543210"
			},
			wantErr: true,
		},
		{
			name: "contact name too short",
			mutate: func(req *model.BookingRequest) {
				req.PrimaryContact.Name = "R"
			},
			wantErr: true,
		},
		{
			name: "attendee without gender",
			mutate: func(req *model.BookingRequest) {
				req.Adults[0].Gender = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)

			err := testValidator(20).ValidateRequest(req)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRequest_AttendeeCap(t *testing.T) {
	v := testValidator(3)

	req := baseRequest()
	req.Adults = append(req.Adults, model.Attendee{Name: "Sita Kumar", Age: 31, Gender: model.GenderFemale})
	req.Children = []model.Attendee{
		{Name: "Arya Kumar", Age: 6, Gender: model.GenderFemale},
	}
	if err := v.ValidateRequest(req); err != nil {
		t.Fatalf("3 attendees should pass a cap of 3: %v", err)
	}

	req.Children = append(req.Children, model.Attendee{Name: "Dev Kumar", Age: 9, Gender: model.GenderMale})
	if err := v.ValidateRequest(req); err == nil {
		t.Fatal("4 attendees should fail a cap of 3")
	}
}

func TestValidatePaymentUpdate(t *testing.T) {
	v := testValidator(20)

	tests := []struct {
		name    string
		update  model.PaymentUpdate
		wantErr bool
	}{
		{"completed", model.PaymentUpdate{PaymentStatus: model.PaymentCompleted}, false},
		{"failed with ref", model.PaymentUpdate{PaymentStatus: model.PaymentFailed, PaymentRef: "pay_123"}, false},
		{"refunded", model.PaymentUpdate{PaymentStatus: model.PaymentRefunded}, false},
		{"missing status", model.PaymentUpdate{}, true},
		{"pending is not a target", model.PaymentUpdate{PaymentStatus: model.PaymentPending}, true},
		{"unknown status", model.PaymentUpdate{PaymentStatus: "settled"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePaymentUpdate(&tt.update)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
