package validator

import (
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
	"dispatch/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type TechnicianValidator struct {
	validate *validator.Validate
}

func NewTechnicianValidator(log *logger.Logger) *TechnicianValidator {
	return &TechnicianValidator{validate: validation.New(log)}
}

func (v *TechnicianValidator) Validate(technician *model.TechnicianCreate) error {
	return validation.Struct(v.validate, technician)
}
