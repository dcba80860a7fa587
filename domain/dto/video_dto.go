package dto

import "video-aggregator/domain/model"

// VideoListRequest represents request for listing a feed page
type VideoListRequest struct {
	Page     int    `json:"page,omitempty"`
	PerPage  int    `json:"per_page,omitempty"`
	Category string `json:"category,omitempty"`
}

// VideoSearchRequest represents request for searching videos
type VideoSearchRequest struct {
	Query string `json:"q" binding:"required"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ApiResponse is the paginated envelope shared by every provider
type ApiResponse struct {
	Files        []model.Video `json:"files"`
	TotalPages   int           `json:"total_pages"`
	CurrentPage  int           `json:"current_page"`
	ResultsTotal int           `json:"results_total"`
	PerPageLimit int           `json:"per_page_limit"`
	Source       string        `json:"source"`
	Status       int           `json:"status"`
	Message      string        `json:"msg,omitempty"`
	Cached       bool          `json:"cached"`
	Stale        bool          `json:"stale,omitempty"`
}

// SearchResponse is a page of ranked search results
type SearchResponse struct {
	Query        string               `json:"query"`
	Results      []model.SearchResult `json:"results"`
	CurrentPage  int                  `json:"current_page"`
	TotalPages   int                  `json:"total_pages"`
	ResultsTotal int                  `json:"results_total"`
	PerPageLimit int                  `json:"per_page_limit"`
}

// CacheStats describes the state of every cache tier
type CacheStats struct {
	Pages          int    `json:"pages"`
	Videos         int    `json:"videos"`
	Searches       int    `json:"searches"`
	Collection     int    `json:"collection"`
	Hits           int64  `json:"hits"`
	Misses         int64  `json:"misses"`
	StaleServed    int64  `json:"stale_served"`
	MockServed     int64  `json:"mock_served"`
	SharedCache    bool   `json:"shared_cache"`
	PersistentTier string `json:"persistent_tier"`
}

// InvalidateRequest selects which cache scope to drop
type InvalidateRequest struct {
	Scope string `json:"scope"` // all, pages, videos, search
}
