package upstream

import (
	"net/http"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
)

// PageLocally slices an unpaginated result set into the requested page
func PageLocally(videos []model.Video, page, perPage int, source string) *dto.ApiResponse {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 24
	}
	total := len(videos)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return &dto.ApiResponse{
		Files:        videos[start:end],
		TotalPages:   pages,
		CurrentPage:  page,
		ResultsTotal: total,
		PerPageLimit: perPage,
		Source:       source,
		Status:       http.StatusOK,
	}
}
