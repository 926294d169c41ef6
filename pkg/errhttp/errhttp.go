// Package errhttp maps domain errors to HTTP status codes.
// Add a case to Status for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemlocations/pkg/httpx"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error" example:"MissingField: postcode"`
	Kind  string `json:"kind,omitempty" example:"MissingField"`
	Field string `json:"field,omitempty" example:"postcode"`
} // @name ErrorResponse

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is()/errors.As() so wrapped errors are matched correctly.
// Unrecognized errors become 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	status := Status(err)
	body := ErrorResponse{Error: err.Error()}

	var vErr *itemdomain.ValidationError
	var dErr *itemdomain.DispatchError
	switch {
	case errors.As(err, &vErr):
		body.Kind = string(vErr.Kind)
		body.Field = vErr.Field
	case errors.As(err, &dErr):
		body.Kind = string(dErr.Kind)
	case errors.Is(err, itemdomain.ErrMalformedBody):
		body.Kind = "MalformedBody"
	case status == http.StatusInternalServerError:
		body.Error = http.StatusText(status)
	}
	httpx.JSON(w, status, body)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var dErr *itemdomain.DispatchError
	switch {
	case errors.Is(err, itemdomain.ErrValidation), errors.Is(err, itemdomain.ErrMalformedBody):
		return http.StatusBadRequest // 400
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrItemAlreadyExists):
		return http.StatusConflict // 409
	case errors.As(err, &dErr) && dErr.Kind == itemdomain.StreamFailed:
		return streamFailureStatus(dErr)
	default:
		return http.StatusInternalServerError // 500
	}
}

// streamFailureStatus separates a sink that refused the record (502) from one
// that could not be reached in time (503).
func streamFailureStatus(dErr *itemdomain.DispatchError) int {
	var sErr *itemdomain.SinkError
	if errors.As(dErr, &sErr) && sErr.Kind == itemdomain.SinkRejected {
		return http.StatusBadGateway // 502
	}
	return http.StatusServiceUnavailable // 503
}
