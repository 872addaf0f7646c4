package service

import (
	"context"
	"errors"
	"time"

	darshanserrors "darshan/internal/darshans/errors"
	"darshan/internal/darshans/repository"
	"darshan/pkg/config"
	apperrors "darshan/pkg/errors"
	"darshan/pkg/model"
)

// OccupancyReader supplies booking counts for capacity arithmetic. The
// bookings repository implements it; availability only ever reads.
type OccupancyReader interface {
	CountPerSlot(ctx context.Context, darshanID string, date time.Time) (map[string]int, error)
}

type AvailabilityService interface {
	ForDate(ctx context.Context, darshanID string, date time.Time) (*model.DateAvailability, error)
}

type availabilityService struct {
	darshans  repository.DarshanRepository
	slots     repository.SlotRepository
	occupancy OccupancyReader
	cfg       *config.Config
}

func NewAvailabilityService(
	darshans repository.DarshanRepository,
	slots repository.SlotRepository,
	occupancy OccupancyReader,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		darshans:  darshans,
		slots:     slots,
		occupancy: occupancy,
		cfg:       cfg,
	}
}

// ForDate computes per-slot remaining capacity for one darshan type on
// one calendar date. Once the daily cap is reached every slot reports
// unavailable, regardless of per-slot headroom. This is a pure read;
// the authoritative re-check happens inside the reservation transaction.
func (s *availabilityService) ForDate(ctx context.Context, darshanID string, date time.Time) (*model.DateAvailability, error) {
	if darshanID == "" {
		return nil, apperrors.InvalidInput("Darshan ID cannot be empty")
	}
	if date.IsZero() {
		return nil, apperrors.InvalidInput("Date is required")
	}
	day := model.DayBucket(date)

	darshanType, err := s.darshans.FindByID(ctx, darshanID)
	if err != nil {
		if errors.Is(err, darshanserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Darshan type", darshanID)
		}
		if errors.Is(err, darshanserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid darshan ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve darshan type", err)
	}

	slots, err := s.slots.FindByDarshan(ctx, darshanID)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve darshan slots", err)
	}

	counts, err := s.occupancy.CountPerSlot(ctx, darshanID, day)
	if err != nil {
		return nil, apperrors.Internal("Failed to count bookings", err)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	dailyCapReached := total >= darshanType.DailyLimit

	view := &model.DateAvailability{
		DarshanID:            darshanID,
		Date:                 day,
		Slots:                make([]model.SlotAvailability, 0, len(slots)),
		DailyLimit:           darshanType.DailyLimit,
		TotalBookingsForDate: total,
	}

	for _, slot := range slots {
		booked := counts[slot.ID]
		available := max(0, slot.MaxBookings-booked)

		view.Slots = append(view.Slots, model.SlotAvailability{
			SlotID:      slot.ID,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			MaxBookings: slot.MaxBookings,
			Booked:      booked,
			Available:   available,
			IsAvailable: available > 0 && !dailyCapReached,
		})
	}

	s.cfg.Log.Debug("Availability computed",
		"darshan_id", darshanID,
		"date", day.Format("2006-01-02"),
		"total_bookings", total,
		"daily_limit", darshanType.DailyLimit,
	)
	return view, nil
}
