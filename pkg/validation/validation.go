package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/logger"
	"dispatch/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// AppError converts the failures into a 422 with a per-field details map.
func (v ValidationErrors) AppError() *apperrors.AppError {
	details := make(map[string]any, len(v))
	for _, e := range v {
		details[e.Field] = e.Message
	}
	return apperrors.Validation("Validation failed", details)
}

// New returns a validator with the custom tags used by the model package.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)

	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		log.Fatal("Failed to register 'phone' validator", "error", err)
	}
	return v
}

var emailValidate = validator.New()

// Email reports whether s is a single well-formed email address.
func Email(s string) bool {
	return emailValidate.Var(s, "required,email") == nil
}

// Struct validates s and translates validator failures into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: message(e),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number in E.164 format"
	default:
		return fmt.Sprintf("failed on '%s' validation", e.Tag())
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	return phone != "" && sanitizer.NormalizePhone(phone) == phone
}

func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
