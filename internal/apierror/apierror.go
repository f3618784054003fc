// Package apierror defines the stable error enumeration returned by the faucet API
// and renders it as a JSON error document.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// MediaType is the JSON:API media type used for every response.
const MediaType = "application/vnd.api+json"

// Error is an API error with a stable numeric code and HTTP status.
// Codes are part of the client contract and must not change.
type Error struct {
	// Code is the stable numeric error code.
	Code int `json:"code"`

	// Status is the HTTP status code.
	Status int `json:"status"`

	// Title is a short summary of the problem.
	Title string `json:"title"`

	// Detail explains how to fix the request.
	Detail string `json:"detail"`

	// Href points at documentation for the error (may be empty).
	Href string `json:"href"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Title)
}

// Document is the serialized error response.
type Document struct {
	Message string   `json:"message"`
	Errors  []*Error `json:"errors"`
}

// =============================================================================
// Framework errors
// =============================================================================

var (
	// ErrContentTypeInvalid indicates a write request without the JSON:API content type.
	ErrContentTypeInvalid = &Error{
		Code:   1000,
		Status: http.StatusUnsupportedMediaType,
		Title:  "Unsupported Media Type",
		Detail: "Content Type must be application/vnd.api+json",
	}

	// ErrAcceptInvalid indicates the client does not accept the JSON:API media type.
	ErrAcceptInvalid = &Error{
		Code:   1000,
		Status: http.StatusNotAcceptable,
		Title:  "Not Acceptable",
		Detail: "Accept must be application/vnd.api+json",
	}

	// ErrInternal is returned for failures that are not part of the protocol,
	// for example an unavailable identity store.
	ErrInternal = &Error{
		Code:   1500,
		Status: http.StatusInternalServerError,
		Title:  "Internal Server Error",
		Detail: "The server encountered an unexpected condition",
	}
)

// From converts any error into an *Error. Errors that are not API errors
// become ErrInternal.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal
}

// Write renders err as a JSON error document with the matching HTTP status.
func Write(w http.ResponseWriter, err error) {
	apiErr := From(err)

	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(apiErr.Status)

	_ = json.NewEncoder(w).Encode(Document{
		Message: apiErr.Title,
		Errors:  []*Error{apiErr},
	})
}
