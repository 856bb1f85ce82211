package models

// PaginationParams represents the pagination parameters of a list request
type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// PaginationResponse represents the pagination response
type PaginationResponse struct {
	TotalItems   int `json:"total_items"`
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
	ItemsPerPage int `json:"items_per_page"`
}

// NewsResponse represents the response for a news list with pagination
type NewsResponse struct {
	Items      []Article          `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}
