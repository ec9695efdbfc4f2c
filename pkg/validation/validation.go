// Package validation renders go-playground/validator errors as client
// messages and classifies request binding failures.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterJSONTagNames makes gin's validator report fields by their json
// name instead of the Go field name.
func RegisterJSONTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonName)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Messages returns one message per failed field, in validation order.
func Messages(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if custom := CustomMessage(e.Field()); custom != nil {
			if msg, ok := custom[e.Tag()]; ok {
				messages = append(messages, msg)
				continue
			}
		}
		messages = append(messages, DefaultMessage(e.Field(), e.Tag(), e.Param()))
	}
	return messages
}

// BindError maps an error from gin's ShouldBind* into a domain error.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.WithMessage(apperrors.ErrValidationFailed, "%s", strings.Join(Messages(verrs), ", "))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "request body is empty")
	case errors.As(err, &syntaxErr):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "%s must be a %s", typeErr.Field, typeErr.Type)
	}
	return apperrors.InvalidInput(err)
}
