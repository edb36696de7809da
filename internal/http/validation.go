package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// JSON names clients send.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// validateRequest validates s and writes a 400 response when it is invalid.
func validateRequest(c *gin.Context, s any) bool {
	err := getValidator().Struct(s)
	if err == nil {
		return true
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		c.JSON(400, ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
		return false
	}

	fields := make([]FieldError, len(validationErrs))
	messages := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translateError(fe)}
		messages[i] = fields[i].Message
	}

	c.JSON(400, ErrorResponse{
		Error:   strings.Join(messages, "; "),
		Code:    "VALIDATION_ERROR",
		Details: fields,
	})
	return false
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
