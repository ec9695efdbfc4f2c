package validation

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/go-playground/validator/v10"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Score    int    `json:"score" validate:"min=1,max=10"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return v
}

func TestMessages(t *testing.T) {
	err := newValidator().Struct(signup{Email: "nope", Password: "123", Score: 11})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	want := []string{
		"Please add a name",
		"Please add a valid email",
		"Password must be at least 6 characters",
		"score must be at most 10",
	}
	got := Messages(verrs)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBindError(t *testing.T) {
	verr := newValidator().Struct(signup{Name: "a", Email: "a@b.co", Password: "secret", Score: 0})

	tests := []struct {
		name string
		err  error
		want *apperrors.DomainError
	}{
		{"validation", verr, apperrors.ErrValidationFailed},
		{"empty body", io.EOF, apperrors.ErrInvalidInput},
		{"syntax", &json.SyntaxError{Offset: 3}, apperrors.ErrInvalidInput},
		{"type", &json.UnmarshalTypeError{Field: "score", Value: "string"}, apperrors.ErrInvalidInput},
		{"other", errors.New("boom"), apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BindError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("BindError() = %v, want code %s", got, tt.want.Code)
			}
		})
	}
}

func TestBindError_ValidationMessage(t *testing.T) {
	err := newValidator().Struct(signup{Name: "a", Email: "a@b.co", Password: "secret", Score: 0})
	got := apperrors.GetErrorMessage(BindError(err))
	if got != "score must be at least 1" {
		t.Errorf("message = %q", got)
	}
}
