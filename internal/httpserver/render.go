package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/service"
)

const validationMessage = "Validation failed"

// APIError is rendered as {"error":{"message":...,"details":...}}.
type APIError struct {
	Code    int
	Message string
	Details any
}

func (e *APIError) Error() string { return fmt.Sprintf("%d: %s", e.Code, e.Message) }

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldErrors maps a json field name to the rules it broke.
type FieldErrors map[string][]string

type ValidationDetails struct {
	FieldErrors FieldErrors `json:"fieldErrors"`
}

func validationError(fields FieldErrors) *APIError {
	return &APIError{
		Code:    http.StatusBadRequest,
		Message: validationMessage,
		Details: ValidationDetails{FieldErrors: fields},
	}
}

func fieldError(fe *service.FieldError) *APIError {
	return validationError(FieldErrors{fe.Field: {fe.Message}})
}

// ErrorHandler renders every error in the same envelope. Unknown errors become
// a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := errorPayload{Message: http.StatusText(http.StatusInternalServerError)}
	code := http.StatusInternalServerError

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.As(err, &httpErr):
		code = httpErr.Code
		switch m := httpErr.Message.(type) {
		case string:
			body.Message = m
		case nil:
			body.Message = http.StatusText(code)
		default:
			body.Message = fmt.Sprint(m)
		}
	default:
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, errorBody{Error: body})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
	}
}

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], describe(fe))
	}
	return validationError(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("Must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("Must contain at most %s character(s)", fe.Param())
	case "oneof":
		return "Expected one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "Invalid value"
	}
}

// bindAndValidate binds the request into T and runs the echo validator.
func bindAndValidate[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}

func bindError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		var typeErr *json.UnmarshalTypeError
		if errors.As(httpErr.Internal, &typeErr) && typeErr.Field != "" {
			return validationError(FieldErrors{typeErr.Field: {"Invalid type"}})
		}
	}
	return &APIError{Code: http.StatusBadRequest, Message: "Invalid request body"}
}
