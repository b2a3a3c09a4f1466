// Package dto provides data transfer objects for the HTTP API.
//
// Requests are bound and converted here; responses reuse the domain
// models directly, which carry API-ready json tags.
package dto

import (
	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination. Most handlers return
// domain.ListResult directly; this shape is for lists assembled in the
// handler itself.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---

// SetDeletionMarkRequest toggles the soft-delete mark.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// parseID converts a request field to an ID with a field-named
// validation error on failure.
func parseID(value, field string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

// parseOptionalID converts an optional request field, returning nil
// when the field is empty.
func parseOptionalID(value, field string) (*id.ID, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := parseID(value, field)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
