package validator

import (
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
	"dispatch/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ServiceValidator struct {
	validate *validator.Validate
}

func NewServiceValidator(log *logger.Logger) *ServiceValidator {
	return &ServiceValidator{validate: validation.New(log)}
}

func (v *ServiceValidator) Validate(service *model.ServiceCreate) error {
	return validation.Struct(v.validate, service)
}

func (v *ServiceValidator) ValidateUpdate(update *model.ServiceUpdate) error {
	return validation.Struct(v.validate, update)
}
