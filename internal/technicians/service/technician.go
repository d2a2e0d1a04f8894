package service

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/schema"
	technicianserrors "dispatch/internal/technicians/errors"
	"dispatch/internal/technicians/repository"
	"dispatch/internal/technicians/validator"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/model"
	"dispatch/pkg/sanitizer"
	"dispatch/pkg/validation"
)

type TechnicianService interface {
	Create(ctx context.Context, input *model.TechnicianCreate) (*model.Technician, error)
	GetByID(ctx context.Context, id string) (*model.Technician, error)
	GetAll(ctx context.Context) ([]*model.Technician, error)
	Eligible(ctx context.Context) ([]model.TechnicianOption, error)
	ToggleActive(ctx context.Context, id string) (*model.Technician, error)
	ToggleVerified(ctx context.Context, id string) (*model.Technician, error)
}

type technicianService struct {
	repo      repository.TechnicianRepository
	validator *validator.TechnicianValidator
	cfg       *config.Config
}

func NewTechnicianService(
	repo repository.TechnicianRepository,
	validator *validator.TechnicianValidator,
	cfg *config.Config,
) TechnicianService {
	return &technicianService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *technicianService) Create(ctx context.Context, input *model.TechnicianCreate) (*model.Technician, error) {
	input.Name = sanitizer.NormalizeName(input.Name)
	if phone := sanitizer.NormalizePhone(input.Phone); phone != "" {
		input.Phone = phone
	}
	input.Skills = sanitizer.NormalizeSkills(input.Skills)

	if err := s.validator.Validate(input); err != nil {
		s.cfg.Log.Warn("Technician validation failed", "name", input.Name, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs.AppError()
		}
		return nil, apperrors.Validation("Technician validation failed", map[string]any{"error": err.Error()})
	}

	technician := &model.Technician{
		Name:     input.Name,
		Phone:    input.Phone,
		Skills:   input.Skills,
		Active:   true,
		Verified: false,
	}
	if err := s.repo.Create(ctx, technician); err != nil {
		s.cfg.Log.Error("Failed to create technician", "name", technician.Name, "error", err)
		return nil, mongodb.AppError(err, "Failed to create technician")
	}

	s.cfg.Log.Info("Technician created", "technician_id", technician.ID, "name", technician.Name)
	return technician, nil
}

func (s *technicianService) GetByID(ctx context.Context, id string) (*model.Technician, error) {
	technician, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve technician")
	}
	return technician, nil
}

func (s *technicianService) GetAll(ctx context.Context) ([]*model.Technician, error) {
	technicians, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list technicians", "error", err)
		return nil, mongodb.LoadError("technicians", err)
	}
	return technicians, nil
}

// Eligible returns the technicians that may be assigned: active == true,
// in name order, with no skill or availability matching.
func (s *technicianService) Eligible(ctx context.Context) ([]model.TechnicianOption, error) {
	technicians, err := s.repo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load eligible technicians", "error", err)
		return nil, mongodb.LoadError("technicians", err)
	}
	return ToOptions(technicians), nil
}

func ToOptions(technicians []*model.Technician) []model.TechnicianOption {
	options := make([]model.TechnicianOption, 0, len(technicians))
	for _, t := range technicians {
		options = append(options, model.TechnicianOption{
			ID:     t.ID,
			Name:   t.Name,
			Phone:  t.Phone,
			Skills: strings.Join(t.Skills, ", "),
		})
	}
	return options
}

func (s *technicianService) ToggleActive(ctx context.Context, id string) (*model.Technician, error) {
	return s.toggle(ctx, id, schema.FieldActive, func(t *model.Technician) *bool { return &t.Active })
}

func (s *technicianService) ToggleVerified(ctx context.Context, id string) (*model.Technician, error) {
	return s.toggle(ctx, id, schema.FieldVerified, func(t *model.Technician) *bool { return &t.Verified })
}

func (s *technicianService) toggle(ctx context.Context, id, field string, flag func(*model.Technician) *bool) (*model.Technician, error) {
	technician, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve technician")
	}

	next := !*flag(technician)
	if err := s.repo.SetFlag(ctx, id, field, next); err != nil {
		return nil, s.mapError(err, id, "Failed to update technician")
	}
	*flag(technician) = next

	s.cfg.Log.Info("Technician flag toggled", "technician_id", id, "field", field, "value", next)
	return technician, nil
}

func (s *technicianService) mapError(err error, id, message string) error {
	switch {
	case errors.Is(err, technicianserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Technician", id)
	case errors.Is(err, technicianserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid technician ID")
	case errors.Is(err, schema.ErrMalformedDocument):
		s.cfg.Log.Error("Malformed technician document", "technician_id", id, "error", err)
		return apperrors.Internal(message, err)
	default:
		s.cfg.Log.Error(message, "technician_id", id, "error", err)
		return mongodb.AppError(err, message)
	}
}
