package validator

import (
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
	"dispatch/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

func (v *BookingValidator) Validate(booking *model.BookingCreate) error {
	err := validation.Struct(v.validate, booking)
	if err != nil {
		v.logger.Debug("Booking validation failed", "error", err)
	}
	return err
}
