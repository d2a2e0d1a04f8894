package validation

import (
	"errors"
	"net/http"
	"testing"

	"dispatch/pkg/logger"
	"dispatch/pkg/model"
)

func TestStruct_TranslatesFieldErrors(t *testing.T) {
	v := New(logger.Discard())

	err := Struct(v, &model.TechnicianCreate{Name: "A", Phone: "0541234567"})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	fields := map[string]string{}
	for _, e := range verrs {
		fields[e.Field] = e.Message
	}
	if _, ok := fields["name"]; !ok {
		t.Errorf("expected name error, got %v", fields)
	}
	if fields["phone"] != "must be a valid phone number in E.164 format" {
		t.Errorf("expected phone error, got %v", fields)
	}
}

func TestStruct_Valid(t *testing.T) {
	v := New(logger.Discard())

	err := Struct(v, &model.TechnicianCreate{
		Name:   "Dana Levi",
		Phone:  "+972541234567",
		Skills: []string{"plumbing"},
	})
	if err != nil {
		t.Fatalf("expected valid technician, got %v", err)
	}
}

func TestStruct_ServicePriceAndDuration(t *testing.T) {
	v := New(logger.Discard())

	err := Struct(v, &model.ServiceCreate{Title: "Deep clean", Price: 0, Duration: -5})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected price and duration errors, got %v", err)
	}
}

func TestValidationErrors_AppError(t *testing.T) {
	appErr := ValidationErrors{{Field: "price", Message: "must be greater than 0"}}.AppError()

	if appErr.StatusCode() != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", appErr.StatusCode())
	}
	if appErr.Details["price"] != "must be greater than 0" {
		t.Errorf("unexpected details %v", appErr.Details)
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"admin@example.com", true},
		{"ops.team+night@dispatch.co.il", true},
		{"", false},
		{"not-an-email", false},
		{"a@b", false},
		{"admin@localhost", false},
		{"Admin <admin@example.com>", false},
	}

	for _, tt := range tests {
		if got := Email(tt.email); got != tt.want {
			t.Errorf("Email(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}
