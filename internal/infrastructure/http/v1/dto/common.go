// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any `json:"items"`
	TotalCount int `json:"totalCount"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// NewListResponse maps a domain list result onto the wire shape.
func NewListResponse[T any](result domain.ListResult[T], items any) ListResponse {
	return ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
}

// --- Base DTOs ---

// DocumentResponse contains common document header fields.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Date      time.Time `json:"date"`
	Comment   string    `json:"comment,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		Number:    d.Number,
		Date:      d.Date,
		Comment:   d.Comment,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		CreatedBy: d.CreatedBy,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
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

// --- Cancel request shared by documents ---

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
