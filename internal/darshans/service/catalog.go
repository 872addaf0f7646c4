package service

import (
	"context"
	"errors"

	darshanserrors "darshan/internal/darshans/errors"
	"darshan/internal/darshans/repository"
	"darshan/internal/darshans/validator"
	"darshan/pkg/config"
	apperrors "darshan/pkg/errors"
	"darshan/pkg/model"
)

type CatalogService interface {
	CreateDarshanType(ctx context.Context, dt *model.DarshanType) error
	CreateSlot(ctx context.Context, slot *model.DarshanSlot) error
	GetDarshanType(ctx context.Context, id string) (*model.DarshanType, error)
	ListByTemple(ctx context.Context, templeID string) ([]*model.DarshanType, error)
	ListSlots(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error)
}

type catalogService struct {
	darshans  repository.DarshanRepository
	slots     repository.SlotRepository
	validator *validator.CatalogValidator
	cfg       *config.Config
}

func NewCatalogService(
	darshans repository.DarshanRepository,
	slots repository.SlotRepository,
	catalogValidator *validator.CatalogValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		darshans:  darshans,
		slots:     slots,
		validator: catalogValidator,
		cfg:       cfg,
	}
}

func (s *catalogService) CreateDarshanType(ctx context.Context, dt *model.DarshanType) error {
	if err := s.validator.ValidateDarshanType(dt); err != nil {
		s.cfg.Log.Warn("Darshan type validation failed", "error", err)
		return apperrors.Validation("Darshan type validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.darshans.Create(ctx, dt); err != nil {
		s.cfg.Log.Error("Failed to create darshan type", "error", err)
		return apperrors.Internal("Failed to create darshan type", err)
	}

	s.cfg.Log.Info("Darshan type created",
		"id", dt.ID,
		"temple_id", dt.TempleID,
		"name", dt.Name,
		"daily_limit", dt.DailyLimit,
	)
	return nil
}

func (s *catalogService) CreateSlot(ctx context.Context, slot *model.DarshanSlot) error {
	if err := s.validator.ValidateSlot(slot); err != nil {
		s.cfg.Log.Warn("Darshan slot validation failed", "error", err)
		return apperrors.Validation("Darshan slot validation failed", map[string]any{"error": err.Error()})
	}

	// The parent darshan type must exist before a slot can hang off it.
	if _, err := s.GetDarshanType(ctx, slot.DarshanID); err != nil {
		return err
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		s.cfg.Log.Error("Failed to create darshan slot", "error", err)
		return apperrors.Internal("Failed to create darshan slot", err)
	}

	s.cfg.Log.Info("Darshan slot created",
		"id", slot.ID,
		"darshan_id", slot.DarshanID,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
		"max_bookings", slot.MaxBookings,
	)
	return nil
}

func (s *catalogService) GetDarshanType(ctx context.Context, id string) (*model.DarshanType, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Darshan ID cannot be empty")
	}

	dt, err := s.darshans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, darshanserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Darshan type", id)
		}
		if errors.Is(err, darshanserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid darshan ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve darshan type", err)
	}

	return dt, nil
}

func (s *catalogService) ListByTemple(ctx context.Context, templeID string) ([]*model.DarshanType, error) {
	if templeID == "" {
		return nil, apperrors.InvalidInput("Temple ID cannot be empty")
	}

	types, err := s.darshans.FindByTemple(ctx, templeID)
	if err != nil {
		s.cfg.Log.Error("Failed to list darshan types", "temple_id", templeID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve darshan types", err)
	}

	return types, nil
}

func (s *catalogService) ListSlots(ctx context.Context, darshanID string) ([]*model.DarshanSlot, error) {
	if _, err := s.GetDarshanType(ctx, darshanID); err != nil {
		return nil, err
	}

	slots, err := s.slots.FindByDarshan(ctx, darshanID)
	if err != nil {
		s.cfg.Log.Error("Failed to list darshan slots", "darshan_id", darshanID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve darshan slots", err)
	}

	return slots, nil
}
