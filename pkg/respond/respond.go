// Package respond renders the uniform JSON envelope used by every API
// handler: {success, data|error, message?}. Errors carry {code, message,
// details?} and are mapped to HTTP statuses by their apperr kind.
package respond

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/pkg/apperr"
)

// Envelope is the top-level response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorBody is the error payload inside a failed envelope.
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// OK writes a 200 envelope with data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage writes a 200 envelope with data and a human message.
func OKMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// Created writes a 201 envelope with data.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error maps err to an HTTP status by its apperr kind and writes a failed
// envelope. Unclassified errors become 500 INTERNAL_ERROR with the
// underlying message kept for diagnostics.
func Error(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err.Error(), nil)
	}
	body := &ErrorBody{Code: ae.Kind.Code(), Message: ae.Message, Details: ae.Details}
	if body.Message == "" {
		body.Message = err.Error()
	}
	return c.JSON(StatusFor(ae.Kind), Envelope{Success: false, Error: body})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
