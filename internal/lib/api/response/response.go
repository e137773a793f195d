package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
	Cause  []Cause `json:"cause,omitempty"`
}

// Cause describes a single field that failed validation.
type Cause struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var (
		msgs   []string
		causes []Cause
	)

	for _, err := range errs {
		causes = append(causes, Cause{
			Field: err.Field(),
			Tag:   err.Tag(),
			Param: err.Param(),
		})

		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("field %s must have %s length %s", err.Field(), err.ActualTag(), err.Param()))
		case "bcryptlen":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most 72 bytes long", err.Field()))
		case "otp":
			msgs = append(msgs, "Malformed OTP")
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Cause:  causes,
	}
}

// FromValidateErr converts the result of validator.Struct into a response.
// Errors other than ValidationErrors (e.g. InvalidValidationError) become a generic message.
func FromValidateErr(err error) Response {
	var validateErr validator.ValidationErrors
	if errors.As(err, &validateErr) {
		return ValidationError(validateErr)
	}

	return Error("invalid request")
}
