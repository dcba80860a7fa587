package model

import "time"

// Video is the normalized record served to clients, whatever upstream it came from
type Video struct {
	FileCode        string    `json:"file_code"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Duration        string    `json:"duration"`
	DurationSeconds int64     `json:"duration_seconds"`
	Views           int64     `json:"views"`
	ViewsFormatted  string    `json:"views_formatted"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	SplashURL       string    `json:"splash_url"`
	EmbedURL        string    `json:"embed_url"`
	DownloadURL     string    `json:"download_url"`
	UploadedAt      time.Time `json:"uploaded_at"`
	Status          string    `json:"status"`
	CanPlay         bool      `json:"can_play"`
	Source          string    `json:"source"`
	Tags            []string  `json:"tags"`
	Size            string    `json:"size"`
	SizeBytes       int64     `json:"size_bytes"`
}

// SearchResult is a Video ranked against a query. Relevance only orders results
type SearchResult struct {
	Video
	Relevance float64 `json:"relevance"`
}

const (
	VideoStatusActive  = "active"
	VideoStatusPending = "pending"
	VideoStatusMock    = "mock"
)
