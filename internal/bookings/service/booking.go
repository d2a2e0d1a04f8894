package service

import (
	"context"
	"errors"

	bookingserrors "dispatch/internal/bookings/errors"
	"dispatch/internal/bookings/repository"
	"dispatch/internal/bookings/validator"
	catalogerrors "dispatch/internal/catalog/errors"
	catalogrepository "dispatch/internal/catalog/repository"
	"dispatch/internal/dashboard/lookup"
	"dispatch/internal/schema"
	technicianserrors "dispatch/internal/technicians/errors"
	techniciansrepository "dispatch/internal/technicians/repository"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/model"
	"dispatch/pkg/sanitizer"
	"dispatch/pkg/validation"

	"golang.org/x/sync/errgroup"
)

type BookingService interface {
	Create(ctx context.Context, input *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.BookingDetail, error)
	List(ctx context.Context, limit int) ([]*model.BookingView, error)
}

type bookingService struct {
	repo        repository.BookingRepository
	services    catalogrepository.ServiceRepository
	technicians techniciansrepository.TechnicianRepository
	validator   *validator.BookingValidator
	cfg         *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	services catalogrepository.ServiceRepository,
	technicians techniciansrepository.TechnicianRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		services:    services,
		technicians: technicians,
		validator:   validator,
		cfg:         cfg,
	}
}

// Create stores a manually entered booking. New bookings are always pending
// with no technician.
func (s *bookingService) Create(ctx context.Context, input *model.BookingCreate) (*model.Booking, error) {
	s.sanitize(input)

	if err := s.validator.Validate(input); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs.AppError()
		}
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.services.FindByID(ctx, input.ServiceID); err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.Validation("Booking validation failed", map[string]any{
				"serviceId": bookingserrors.ErrUnknownService.Error(),
			})
		}
		s.cfg.Log.Error("Failed to verify booking service", "service_id", input.ServiceID, "error", err)
		return nil, mongodb.AppError(err, "Failed to create booking")
	}

	booking := &model.Booking{
		ServiceID:       input.ServiceID,
		TechnicianID:    nil,
		Status:          model.BookingStatusPending,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		Notes:           input.Notes,
		ScheduledAt:     input.ScheduledAt.UTC(),
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "service_id", booking.ServiceID, "error", err)
		return nil, mongodb.AppError(err, "Failed to create booking")
	}

	s.cfg.Log.Info("Booking created",
		"booking_id", booking.ID,
		"service_id", booking.ServiceID,
		"scheduled_at", booking.ScheduledAt,
	)
	return booking, nil
}

// GetByID loads a booking and, concurrently, the service and technician it
// references. A dangling reference falls back to the sentinel names.
func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingDetail, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	var (
		svc  *model.Service
		tech *model.Technician
	)
	g, gctx := errgroup.WithContext(ctx)
	if booking.ServiceID != "" {
		g.Go(func() error {
			found, err := s.services.FindByID(gctx, booking.ServiceID)
			if err != nil && !errors.Is(err, catalogerrors.ErrNotFound) && !errors.Is(err, schema.ErrMalformedDocument) {
				return &lookup.FetchError{Thing: "service", Err: err}
			}
			svc = found
			return nil
		})
	}
	if booking.HasTechnician() {
		g.Go(func() error {
			found, err := s.technicians.FindByID(gctx, *booking.TechnicianID)
			if err != nil && !errors.Is(err, technicianserrors.ErrNotFound) && !errors.Is(err, schema.ErrMalformedDocument) {
				return &lookup.FetchError{Thing: "technician", Err: err}
			}
			tech = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.loadError(err)
	}

	var services []*model.Service
	if svc != nil {
		services = append(services, svc)
	}
	var technicians []*model.Technician
	if tech != nil {
		technicians = append(technicians, tech)
	}

	return &model.BookingDetail{
		BookingView: *lookup.NewDirectory(services, technicians).View(booking),
		Service:     svc,
		Technician:  tech,
	}, nil
}

// List returns the first page of bookings joined with display names.
func (s *bookingService) List(ctx context.Context, limit int) ([]*model.BookingView, error) {
	limit = config.NormalizePageSize(limit, s.cfg.BookingsPageSize)

	snap, err := lookup.Fetch(ctx, s.services, s.technicians, s.repo, limit)
	if err != nil {
		return nil, s.loadError(err)
	}
	return snap.Join(), nil
}

func (s *bookingService) sanitize(input *model.BookingCreate) {
	input.ServiceID = sanitizer.TrimAndNormalize(input.ServiceID)
	input.CustomerName = sanitizer.NormalizeName(input.CustomerName)
	input.CustomerAddress = sanitizer.NormalizeAddress(input.CustomerAddress)
	input.Notes = sanitizer.TrimAndNormalize(input.Notes)
	if phone := sanitizer.NormalizePhone(input.CustomerPhone); phone != "" {
		input.CustomerPhone = phone
	}
}

func (s *bookingService) loadError(err error) error {
	thing := "bookings"
	var fetchErr *lookup.FetchError
	if errors.As(err, &fetchErr) {
		thing = fetchErr.Thing
	}
	s.cfg.Log.Error("Failed to load booking data", "thing", thing, "error", err)
	return mongodb.LoadError(thing, err)
}

func (s *bookingService) mapError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID")
	default:
		s.cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		return mongodb.LoadError("booking", err)
	}
}
