package service

import (
	"context"
	"testing"
	"time"

	darshanserrors "darshan/internal/darshans/errors"
	"darshan/pkg/config"
	apperrors "darshan/pkg/errors"
	"darshan/pkg/logger"
	"darshan/pkg/model"
)

const (
	testDarshanID = "64a0000000000000000000a1"
	testTempleID  = "64a0000000000000000000c1"
)

// Mock repositories for testing

type mockDarshanRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.DarshanType, error)
}

func (m *mockDarshanRepository) Create(ctx context.Context, dt *model.DarshanType) error {
	return nil
}

func (m *mockDarshanRepository) FindByID(ctx context.Context, id string) (*model.DarshanType, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.DarshanType{
		ID:         testDarshanID,
		TempleID:   testTempleID,
		Name:       "General Darshan",
		Price:      5000,
		DailyLimit: 10,
		Active:     true,
	}, nil
}

func (m *mockDarshanRepository) FindByTemple(ctx context.Context, templeID string) ([]*model.DarshanType, error) {
	return []*model.DarshanType{}, nil
}

type mockSlotRepository struct {
	findByDarshanFunc func(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error)
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *model.DarshanSlot) error {
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.DarshanSlot, error) {
	return nil, darshanserrors.ErrSlotNotFound
}

func (m *mockSlotRepository) FindByDarshan(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error) {
	if m.findByDarshanFunc != nil {
		return m.findByDarshanFunc(ctx, darshanID)
	}
	return []*model.DarshanSlot{
		{ID: "slot-morning", DarshanID: darshanID, StartTime: "06:00", EndTime: "08:00", MaxBookings: 5},
		{ID: "slot-evening", DarshanID: darshanID, StartTime: "17:00", EndTime: "19:00", MaxBookings: 5},
	}, nil
}

type mockOccupancyReader struct {
	countPerSlotFunc func(ctx context.Context, darshanID string, date time.Time) (map[string]int, error)
}

func (m *mockOccupancyReader) CountPerSlot(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
	if m.countPerSlotFunc != nil {
		return m.countPerSlotFunc(ctx, darshanID, date)
	}
	return map[string]int{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newAvailabilityService(darshans *mockDarshanRepository, slots *mockSlotRepository, occupancy *mockOccupancyReader) *availabilityService {
	if darshans == nil {
		darshans = &mockDarshanRepository{}
	}
	if slots == nil {
		slots = &mockSlotRepository{}
	}
	if occupancy == nil {
		occupancy = &mockOccupancyReader{}
	}
	return &availabilityService{
		darshans:  darshans,
		slots:     slots,
		occupancy: occupancy,
		cfg:       testConfig(),
	}
}

func TestForDate_EmptyDarshan(t *testing.T) {
	svc := newAvailabilityService(nil, nil, nil)

	view, err := svc.ForDate(context.Background(), testDarshanID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(view.Slots))
	}
	for _, slot := range view.Slots {
		if slot.Booked != 0 {
			t.Errorf("slot %s: expected 0 booked, got %d", slot.SlotID, slot.Booked)
		}
		if slot.Available != slot.MaxBookings {
			t.Errorf("slot %s: expected full availability, got %d", slot.SlotID, slot.Available)
		}
		if !slot.IsAvailable {
			t.Errorf("slot %s: expected available", slot.SlotID)
		}
	}
	if view.TotalBookingsForDate != 0 {
		t.Errorf("expected total 0, got %d", view.TotalBookingsForDate)
	}
}

func TestForDate_PerSlotOccupancy(t *testing.T) {
	occupancy := &mockOccupancyReader{
		countPerSlotFunc: func(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
			return map[string]int{"slot-morning": 3}, nil
		},
	}
	svc := newAvailabilityService(nil, nil, occupancy)

	view, err := svc.ForDate(context.Background(), testDarshanID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	morning := view.Slots[0]
	if morning.Booked != 3 || morning.Available != 2 {
		t.Errorf("morning: expected 3 booked / 2 available, got %d/%d", morning.Booked, morning.Available)
	}
	evening := view.Slots[1]
	if evening.Booked != 0 || evening.Available != 5 {
		t.Errorf("evening: expected 0 booked / 5 available, got %d/%d", evening.Booked, evening.Available)
	}
	if view.TotalBookingsForDate != 3 {
		t.Errorf("expected total 3, got %d", view.TotalBookingsForDate)
	}
}

func TestForDate_DailyCapDominatesSlotHeadroom(t *testing.T) {
	// Daily limit of 4 is consumed entirely by the morning slot; the
	// evening slot has free seats yet must report unavailable.
	darshans := &mockDarshanRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.DarshanType, error) {
			return &model.DarshanType{
				ID:         testDarshanID,
				TempleID:   testTempleID,
				Name:       "General Darshan",
				Price:      5000,
				DailyLimit: 4,
				Active:     true,
			}, nil
		},
	}
	occupancy := &mockOccupancyReader{
		countPerSlotFunc: func(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
			return map[string]int{"slot-morning": 4}, nil
		},
	}
	svc := newAvailabilityService(darshans, nil, occupancy)

	view, err := svc.ForDate(context.Background(), testDarshanID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, slot := range view.Slots {
		if slot.IsAvailable {
			t.Errorf("slot %s: expected unavailable once the daily cap is reached", slot.SlotID)
		}
	}
	evening := view.Slots[1]
	if evening.Available != 5 {
		t.Errorf("evening: per-slot headroom should still be reported, got %d", evening.Available)
	}
}

func TestForDate_OverbookedSlotClampsToZero(t *testing.T) {
	occupancy := &mockOccupancyReader{
		countPerSlotFunc: func(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
			return map[string]int{"slot-morning": 9}, nil
		},
	}
	svc := newAvailabilityService(nil, nil, occupancy)

	view, err := svc.ForDate(context.Background(), testDarshanID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	morning := view.Slots[0]
	if morning.Available != 0 {
		t.Errorf("expected available clamped to 0, got %d", morning.Available)
	}
}

func TestForDate_DateBucketedToUTCDay(t *testing.T) {
	var captured time.Time
	occupancy := &mockOccupancyReader{
		countPerSlotFunc: func(ctx context.Context, darshanID string, date time.Time) (map[string]int, error) {
			captured = date
			return map[string]int{}, nil
		},
	}
	svc := newAvailabilityService(nil, nil, occupancy)

	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2026, 9, 12, 23, 30, 0, 0, loc)

	view, err := svc.ForDate(context.Background(), testDarshanID, local)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	if !captured.Equal(want) {
		t.Errorf("expected occupancy queried at %v, got %v", want, captured)
	}
	if !view.Date.Equal(want) {
		t.Errorf("expected view date %v, got %v", want, view.Date)
	}
}

func TestForDate_UnknownDarshan(t *testing.T) {
	darshans := &mockDarshanRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.DarshanType, error) {
			return nil, darshanserrors.ErrNotFound
		},
	}
	svc := newAvailabilityService(darshans, nil, nil)

	_, err := svc.ForDate(context.Background(), testDarshanID, time.Now())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestForDate_InvalidInput(t *testing.T) {
	svc := newAvailabilityService(nil, nil, nil)

	if _, err := svc.ForDate(context.Background(), "", time.Now()); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty darshan id, got %v", err)
	}
	if _, err := svc.ForDate(context.Background(), testDarshanID, time.Time{}); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for zero date, got %v", err)
	}
}
