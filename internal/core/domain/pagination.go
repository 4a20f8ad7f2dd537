package domain

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page is a decoded listing.
type Page[T any] struct {
	Items      []T
	Pagination *Pagination
}
