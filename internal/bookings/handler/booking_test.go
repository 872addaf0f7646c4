package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "darshan/pkg/errors"
	"darshan/pkg/logger"
	"darshan/pkg/middleware"
	"darshan/pkg/model"
)

// Mock service for testing
type mockBookingService struct {
	createFunc        func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	getByIDFunc       func(ctx context.Context, id, ownerID string) (*model.Booking, error)
	listByOwnerFunc   func(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	updatePaymentFunc func(ctx context.Context, id, ownerID string, update *model.PaymentUpdate) (*model.Booking, error)
	cancelFunc        func(ctx context.Context, id, ownerID string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Booking{ID: "64a0000000000000000000d1"}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id, ownerID)
	}
	return &model.Booking{ID: id, OwnerID: ownerID}, nil
}

func (m *mockBookingService) ListByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) UpdatePayment(ctx context.Context, id, ownerID string, update *model.PaymentUpdate) (*model.Booking, error) {
	if m.updatePaymentFunc != nil {
		return m.updatePaymentFunc(ctx, id, ownerID, update)
	}
	return &model.Booking{ID: id, OwnerID: ownerID}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, ownerID)
	}
	return &model.Booking{ID: id, OwnerID: ownerID, Status: model.StatusCancelled}, nil
}

func (m *mockBookingService) Complete(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	return &model.Booking{ID: id, OwnerID: ownerID, Status: model.StatusCompleted}, nil
}

func testLog() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func newTestRouter(svc *mockBookingService) http.Handler {
	router := httprouter.New()
	NewBookingHandler(svc, testLog()).RegisterRoutes(router)
	return middleware.Identity(testLog())(router)
}

const createBody = `{
	"darshan_id": "64a0000000000000000000a1",
	"slot_id": "64a0000000000000000000b1",
	"date": "2027-03-15",
	"primary_contact": {"name": "Ravi Kumar", "phone": "+919876543210"},
	"adults": [{"name": "Ravi Kumar", "age": 34, "gender": "male"}]
}`

func TestCreateHandler_OwnerFromHeaderNotBody(t *testing.T) {
	var received *model.BookingRequest
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			received = req
			return &model.Booking{ID: "64a0000000000000000000d1", OwnerID: req.OwnerID}, nil
		},
	}
	router := newTestRouter(svc)

	// The body tries to spoof a different owner; the header must win.
	body := strings.Replace(createBody, `"darshan_id"`, `"owner_id": "spoofed", "darshan_id"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if received.OwnerID != "user-123" {
		t.Errorf("expected owner from header, got %q", received.OwnerID)
	}
	if !received.Date.Equal(time.Date(2027, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected bare date parsed, got %v", received.Date)
	}
}

func TestCreateHandler_MissingIdentity(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(createBody))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity header, got %d", rec.Code)
	}
}

func TestCreateHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"capacity exceeded", apperrors.CapacityExceeded("Slot is full"), http.StatusConflict, apperrors.CodeCapacityExceeded},
		{"lock contention", apperrors.Conflict("Try again"), http.StatusConflict, apperrors.CodeConflict},
		{"unknown darshan", apperrors.NotFoundWithID("Darshan type", "x"), http.StatusNotFound, apperrors.CodeNotFound},
		{"bad input", apperrors.InvalidInput("Booking date cannot be in the past"), http.StatusBadRequest, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
					return nil, tt.serviceErr
				},
			}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(createBody))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.HeaderUserID, "user-123")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestCreateHandler_MalformedBody(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetByIDHandler_ScopesToCaller(t *testing.T) {
	var gotID, gotOwner string
	svc := &mockBookingService{
		getByIDFunc: func(ctx context.Context, id, ownerID string) (*model.Booking, error) {
			gotID, gotOwner = id, ownerID
			return &model.Booking{ID: id, OwnerID: ownerID}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/64a0000000000000000000d1", nil)
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "64a0000000000000000000d1" || gotOwner != "user-123" {
		t.Errorf("service called with id=%q owner=%q", gotID, gotOwner)
	}
}

func TestListHandler_Pagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	svc := &mockBookingService{
		listByOwnerFunc: func(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Booking{}, 42, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=5&offset=10", nil)
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 5 || gotOffset != 10 {
		t.Errorf("expected limit=5 offset=10, got %d/%d", gotLimit, gotOffset)
	}

	var resp struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.TotalCount != 42 {
		t.Errorf("expected total_count 42, got %d", resp.TotalCount)
	}
}

func TestCancelHandler(t *testing.T) {
	svc := &mockBookingService{
		cancelFunc: func(ctx context.Context, id, ownerID string) (*model.Booking, error) {
			if ownerID != "user-123" {
				return nil, apperrors.Forbidden("You may only access your own bookings")
			}
			return &model.Booking{ID: id, OwnerID: ownerID, Status: model.StatusCancelled}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/64a0000000000000000000d1/cancel", nil)
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/64a0000000000000000000d1/cancel", nil)
	req.Header.Set(middleware.HeaderUserID, "someone-else")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign booking, got %d", rec.Code)
	}
}

func TestUpdatePaymentHandler(t *testing.T) {
	var gotUpdate *model.PaymentUpdate
	svc := &mockBookingService{
		updatePaymentFunc: func(ctx context.Context, id, ownerID string, update *model.PaymentUpdate) (*model.Booking, error) {
			gotUpdate = update
			return &model.Booking{ID: id, OwnerID: ownerID, PaymentStatus: update.PaymentStatus}, nil
		},
	}
	router := newTestRouter(svc)

	body := `{"payment_status": "completed", "payment_ref": "pay_123"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/id/64a0000000000000000000d1/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "user-123")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUpdate.PaymentStatus != model.PaymentCompleted || gotUpdate.PaymentRef != "pay_123" {
		t.Errorf("unexpected update payload: %+v", gotUpdate)
	}
}
