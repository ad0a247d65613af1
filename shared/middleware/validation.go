package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flathunt/platform/shared/result"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func ValidateRequest(obj any) []ValidationError {
	var validationErrors []ValidationError

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}
	for _, err := range fieldErrs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMsg(err),
			Type:    err.Tag(),
		})
	}

	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "len":
		return "Value must be " + err.Param() + " characters long"
	case "hexadecimal":
		return "Value must be hexadecimal"
	default:
		return "Invalid value"
	}
}

// RespondWithValidationError writes a 400 envelope listing the failed fields.
func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	parts := make([]string, 0, len(validationErrors))
	for _, v := range validationErrors {
		parts = append(parts, v.Field+": "+v.Message)
	}
	detail := strings.Join(parts, "; ")
	c.JSON(http.StatusBadRequest, gin.H{
		"success":      false,
		"statusCode":   "400",
		"message":      result.MsgInvalidRequest,
		"errorMessage": detail,
		"details":      validationErrors,
	})
}

// RespondWithError writes the envelope for a failed operation.
func RespondWithError(c *gin.Context, err *result.Error) {
	env := result.Err[struct{}](err).Envelope(http.StatusOK, "")
	c.JSON(env.Status(), env)
}
