package service

import (
	"context"
	"errors"

	catalogerrors "dispatch/internal/catalog/errors"
	"dispatch/internal/catalog/repository"
	"dispatch/internal/catalog/validator"
	"dispatch/internal/schema"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/model"
	"dispatch/pkg/sanitizer"
	"dispatch/pkg/validation"
)

type CatalogService interface {
	Create(ctx context.Context, input *model.ServiceCreate) (*model.Service, error)
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context) ([]*model.Service, error)
	Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error)
	ToggleActive(ctx context.Context, id string) (*model.Service, error)
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validator.ServiceValidator
	cfg       *config.Config
}

func NewCatalogService(
	repo repository.ServiceRepository,
	validator *validator.ServiceValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, input *model.ServiceCreate) (*model.Service, error) {
	input.Title = sanitizer.NormalizeName(input.Title)
	input.Category = sanitizer.TrimAndNormalize(input.Category)

	if err := s.validator.Validate(input); err != nil {
		s.cfg.Log.Warn("Service validation failed", "title", input.Title, "error", err)
		return nil, validationError(err)
	}

	service := &model.Service{
		Title:    input.Title,
		Category: input.Category,
		Price:    input.Price,
		Duration: input.Duration,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, service); err != nil {
		s.cfg.Log.Error("Failed to create service", "title", service.Title, "error", err)
		return nil, mongodb.AppError(err, "Failed to create service")
	}

	s.cfg.Log.Info("Service created", "service_id", service.ID, "title", service.Title)
	return service, nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve service")
	}
	return service, nil
}

func (s *catalogService) GetAll(ctx context.Context) ([]*model.Service, error) {
	services, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list services", "error", err)
		return nil, mongodb.LoadError("services", err)
	}
	return services, nil
}

func (s *catalogService) Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error) {
	if update.Title != nil {
		title := sanitizer.NormalizeName(*update.Title)
		update.Title = &title
	}
	if update.Category != nil {
		category := sanitizer.TrimAndNormalize(*update.Category)
		update.Category = &category
	}

	if update.Empty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Service update validation failed", "service_id", id, "error", err)
		return nil, validationError(err)
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		return nil, s.mapError(err, id, "Failed to update service")
	}

	s.cfg.Log.Info("Service updated", "service_id", id)
	return s.GetByID(ctx, id)
}

func (s *catalogService) ToggleActive(ctx context.Context, id string) (*model.Service, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve service")
	}

	next := !service.IsActive
	if err := s.repo.SetActive(ctx, id, next); err != nil {
		return nil, s.mapError(err, id, "Failed to update service")
	}
	service.IsActive = next

	s.cfg.Log.Info("Service active flag toggled", "service_id", id, "is_active", next)
	return service, nil
}

func (s *catalogService) mapError(err error, id, message string) error {
	switch {
	case errors.Is(err, catalogerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Service", id)
	case errors.Is(err, catalogerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid service ID")
	case errors.Is(err, catalogerrors.ErrEmptyUpdate):
		return apperrors.InvalidInput("No fields to update")
	case errors.Is(err, schema.ErrMalformedDocument):
		s.cfg.Log.Error("Malformed service document", "service_id", id, "error", err)
		return apperrors.Internal(message, err)
	default:
		s.cfg.Log.Error(message, "service_id", id, "error", err)
		return mongodb.AppError(err, message)
	}
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.AppError()
	}
	return apperrors.Validation("Service validation failed", map[string]any{"error": err.Error()})
}
