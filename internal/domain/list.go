// Package domain holds types shared by the domain services.
package domain

// ListResult is a generic paginated query result.
type ListResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// Page holds common pagination parameters for list filters.
type Page struct {
	Limit  int
	Offset int
	// OrderBy is a raw "column direction" clause chosen by the caller
	// from a whitelist; repositories apply it verbatim.
	OrderBy string
}
