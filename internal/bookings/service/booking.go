package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "darshan/internal/bookings/errors"
	"darshan/internal/bookings/events"
	"darshan/internal/bookings/repository"
	"darshan/internal/bookings/validator"
	darshanserrors "darshan/internal/darshans/errors"
	darshansrepo "darshan/internal/darshans/repository"
	"darshan/internal/receipt"
	"darshan/pkg/config"
	apperrors "darshan/pkg/errors"
	"darshan/pkg/model"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id, ownerID string) (*model.Booking, error)
	ListByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdatePayment(ctx context.Context, id, ownerID string, update *model.PaymentUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id, ownerID string) (*model.Booking, error)
	Complete(ctx context.Context, id, ownerID string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.ReservationLockRepository
	darshans  darshansrepo.DarshanRepository
	slots     darshansrepo.SlotRepository
	validator *validator.BookingValidator
	issuer    *receipt.Issuer
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.ReservationLockRepository,
	darshans darshansrepo.DarshanRepository,
	slots darshansrepo.SlotRepository,
	bookingValidator *validator.BookingValidator,
	issuer *receipt.Issuer,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		darshans:  darshans,
		slots:     slots,
		validator: bookingValidator,
		issuer:    issuer,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create converts an availability check into a durable reservation.
// Capacity is re-validated at commit time inside the transaction that
// performs the insert; the advisory lock serializes attempts for the
// same (darshan, date) so the recount cannot race a concurrent insert,
// including inserts against a different slot of the same darshan that
// would breach the daily cap.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	day := model.DayBucket(req.Date.Time)
	if day.Before(model.DayBucket(time.Now())) {
		return nil, apperrors.InvalidInput("Booking date cannot be in the past")
	}

	darshanType, slot, err := s.resolveCatalog(ctx, req)
	if err != nil {
		return nil, err
	}

	booking := s.buildBooking(req, darshanType, day)

	lockID, err := s.acquireReservationLock(ctx, darshanType.ID, day)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseReservationLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	// Receipt uniqueness is enforced by the unique index; a colliding
	// candidate aborts the transaction, so the whole unit of work is
	// retried with a fresh candidate, up to the issuer's bound.
	for attempt := 1; attempt <= s.issuer.MaxAttempts(); attempt++ {
		candidate, err := s.issuer.Candidate(time.Now())
		if err != nil {
			return nil, apperrors.Internal("Failed to generate receipt number", err)
		}
		booking.ReceiptNumber = candidate

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.checkCapacity(sessCtx, darshanType, slot, day, booking.Seats); err != nil {
				return err
			}
			return s.repo.Create(sessCtx, booking)
		})
		if err == nil {
			s.cfg.Log.Info("Booking created successfully",
				"id", booking.ID,
				"darshan_id", booking.DarshanID,
				"slot_id", booking.SlotID,
				"date", day.Format("2006-01-02"),
				"receipt_number", booking.ReceiptNumber,
				"seats", booking.Seats,
				"amount", booking.Amount,
			)
			s.publisher.BookingCreated(ctx, booking)
			return booking, nil
		}
		if repository.IsDuplicateReceipt(err) {
			s.cfg.Log.Warn("Receipt number collision, retrying",
				"attempt", attempt,
				"receipt_number", candidate,
			)
			continue
		}
		if !apperrors.IsAppError(err) {
			err = apperrors.Internal("Failed to create booking", err)
		}
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	return nil, apperrors.Conflict("Could not allocate a unique receipt number. Please retry the booking.")
}

func (s *bookingService) resolveCatalog(ctx context.Context, req *model.BookingRequest) (*model.DarshanType, *model.DarshanSlot, error) {
	darshanType, err := s.darshans.FindByID(ctx, req.DarshanID)
	if err != nil {
		if errors.Is(err, darshanserrors.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Darshan type", req.DarshanID)
		}
		if errors.Is(err, darshanserrors.ErrInvalidID) {
			return nil, nil, apperrors.InvalidInput("Invalid darshan ID format")
		}
		return nil, nil, apperrors.Internal("Failed to retrieve darshan type", err)
	}
	if !darshanType.Active {
		return nil, nil, apperrors.Conflict("Darshan type is not open for booking")
	}

	slot, err := s.slots.FindByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, darshanserrors.ErrSlotNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Darshan slot", req.SlotID)
		}
		if errors.Is(err, darshanserrors.ErrInvalidID) {
			return nil, nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		return nil, nil, apperrors.Internal("Failed to retrieve darshan slot", err)
	}
	if slot.DarshanID != darshanType.ID {
		return nil, nil, apperrors.InvalidInput("Slot does not belong to the requested darshan type")
	}

	return darshanType, slot, nil
}

func (s *bookingService) buildBooking(req *model.BookingRequest, darshanType *model.DarshanType, day time.Time) *model.Booking {
	attendees := len(req.Adults) + len(req.Children)

	seats := len(req.Adults)
	if s.cfg.CountChildrenInCapacity {
		seats = attendees
	}

	return &model.Booking{
		DarshanID:      darshanType.ID,
		SlotID:         req.SlotID,
		TempleID:       darshanType.TempleID,
		OwnerID:        req.OwnerID,
		Date:           day,
		Status:         model.StatusConfirmed,
		PaymentStatus:  model.PaymentPending,
		PrimaryContact: req.PrimaryContact,
		Adults:         req.Adults,
		Children:       req.Children,
		Seats:          seats,
		Amount:         darshanType.Price * int64(attendees),
	}
}

// checkCapacity runs inside the reservation transaction. Both bounds are
// recomputed from current data; earlier availability reads are never
// trusted.
func (s *bookingService) checkCapacity(ctx context.Context, darshanType *model.DarshanType, slot *model.DarshanSlot, day time.Time, seats int) error {
	slotSeats, err := s.repo.OccupiedSeatsForSlot(ctx, slot.ID, day)
	if err != nil {
		return apperrors.Internal("Failed to count slot occupancy", err)
	}
	if slotSeats+seats > slot.MaxBookings {
		return apperrors.CapacityExceeded(fmt.Sprintf(
			"Slot is full for %s: %d of %d seats taken",
			day.Format("2006-01-02"), slotSeats, slot.MaxBookings,
		))
	}

	darshanSeats, err := s.repo.OccupiedSeatsForDarshan(ctx, darshanType.ID, day)
	if err != nil {
		return apperrors.Internal("Failed to count daily occupancy", err)
	}
	if darshanSeats+seats > darshanType.DailyLimit {
		return apperrors.CapacityExceeded(fmt.Sprintf(
			"Daily limit reached for %s: %d of %d bookings taken",
			day.Format("2006-01-02"), darshanSeats, darshanType.DailyLimit,
		))
	}

	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(booking, ownerID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByOwner(ctx, ownerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "owner_id", ownerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByOwner(ctx, ownerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "owner_id", ownerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// UpdatePayment applies one payment state transition. Re-posting the
// current terminal value is accepted idempotently; the booking's amount
// and attendee data are never modified.
func (s *bookingService) UpdatePayment(ctx context.Context, id, ownerID string, update *model.PaymentUpdate) (*model.Booking, error) {
	if err := s.validator.ValidatePaymentUpdate(update); err != nil {
		s.cfg.Log.Warn("Payment update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid payment update", map[string]any{"error": err.Error()})
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(booking, ownerID); err != nil {
		return nil, err
	}

	current, target := booking.PaymentStatus, update.PaymentStatus
	if current == target {
		return booking, nil
	}
	if !paymentTransitionAllowed(current, target) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Payment status cannot change from %s to %s", current, target,
		))
	}

	if err := s.repo.UpdatePayment(ctx, id, current, target, update.PaymentRef); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return nil, apperrors.Conflict("Payment status changed concurrently. Please retry.")
		}
		return nil, apperrors.Internal("Failed to update payment status", err)
	}

	booking.PaymentStatus = target
	if update.PaymentRef != "" {
		booking.PaymentRef = update.PaymentRef
	}

	s.cfg.Log.Info("Payment status updated",
		"id", id,
		"from", current,
		"to", target,
	)
	s.publisher.PaymentUpdated(ctx, booking)
	return booking, nil
}

// paymentTransitionAllowed encodes the payment state machine: pending
// may resolve either way, a failed attempt may be re-posted to
// completed, and completed may only move to refunded.
func paymentTransitionAllowed(from, to model.PaymentStatus) bool {
	switch from {
	case model.PaymentPending:
		return to == model.PaymentCompleted || to == model.PaymentFailed
	case model.PaymentFailed:
		return to == model.PaymentCompleted
	case model.PaymentCompleted:
		return to == model.PaymentRefunded
	default:
		return false
	}
}

// Cancel frees the booking's capacity: subsequent availability reads and
// reservation recounts no longer include it.
func (s *bookingService) Cancel(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(booking, ownerID); err != nil {
		return nil, err
	}

	if booking.Status == model.StatusCancelled {
		return booking, nil
	}
	if booking.Status == model.StatusCompleted {
		return nil, apperrors.Conflict("A completed booking cannot be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusCancelled); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return nil, apperrors.Conflict("Booking status changed concurrently. Please retry.")
		}
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.StatusCancelled
	s.cfg.Log.Info("Booking cancelled", "id", id, "slot_id", booking.SlotID, "date", booking.Date.Format("2006-01-02"))
	s.publisher.BookingCancelled(ctx, booking)
	return booking, nil
}

// Complete marks a visit as done. No capacity effect: completed bookings
// still count against their (slot, date) bucket.
func (s *bookingService) Complete(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(booking, ownerID); err != nil {
		return nil, err
	}

	if booking.Status == model.StatusCompleted {
		return booking, nil
	}
	if booking.Status == model.StatusCancelled {
		return nil, apperrors.Conflict("A cancelled booking cannot be completed")
	}

	if err := s.repo.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusCompleted); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return nil, apperrors.Conflict("Booking status changed concurrently. Please retry.")
		}
		return nil, apperrors.Internal("Failed to complete booking", err)
	}

	booking.Status = model.StatusCompleted
	s.cfg.Log.Info("Booking completed", "id", id)
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// ensureOwner is the single capability check for booking access: the
// caller may act on a booking iff they own it.
func (s *bookingService) ensureOwner(booking *model.Booking, ownerID string) error {
	if ownerID == "" {
		return apperrors.InvalidInput("Owner ID cannot be empty")
	}
	if booking.OwnerID != ownerID {
		return apperrors.Forbidden("You may only access your own bookings")
	}
	return nil
}

// acquireReservationLock serializes reservation attempts for one
// (darshan, date). The daily cap spans every slot of the darshan, so
// the lock is darshan-scoped; a duplicate key means another request is
// booking this darshan and date right now.
func (s *bookingService) acquireReservationLock(ctx context.Context, darshanID string, day time.Time) (string, error) {
	lockID := model.ReservationLockID(darshanID, day)

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.ReservationLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This darshan is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseReservationLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
