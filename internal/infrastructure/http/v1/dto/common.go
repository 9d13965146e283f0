// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// IDResponse returns an entity ID after creation.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListRequest contains common list parameters.
type ListRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults sets default list parameters.
func (r *ListRequest) Defaults() {
	if r.Limit == 0 {
		r.Limit = 50
	}
}

// ListResponse wraps list results.
type ListResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse builds a list envelope around already-fetched items.
func NewListResponse(items any, count, limit, offset int) ListResponse {
	return ListResponse{Items: items, Count: count, Limit: limit, Offset: offset}
}
