package normalize

import (
	"strings"
	"time"

	"video-aggregator/domain/model"
)

// Raw carries the provider fields before normalization
type Raw struct {
	FileCode        string
	Title           string
	Description     string
	DurationSeconds int64
	Views           int64
	SizeBytes       int64
	ThumbnailURL    string
	SplashURL       string
	EmbedURL        string
	DownloadURL     string
	UploadedAt      time.Time
	Status          string
	CanPlay         bool
	Source          string
	Tags            []string
}

// Video maps provider fields onto the single Video shape
func Video(r Raw) model.Video {
	title := CleanTitle(r.Title)
	duration := FormatDuration(r.DurationSeconds)
	status := strings.ToLower(strings.TrimSpace(r.Status))
	if status == "" {
		status = model.VideoStatusActive
	}
	splash := r.SplashURL
	if splash == "" {
		splash = r.ThumbnailURL
	}
	thumb := r.ThumbnailURL
	if thumb == "" {
		thumb = splash
	}
	views := r.Views
	if views < 0 {
		views = 0
	}
	return model.Video{
		FileCode:        strings.TrimSpace(r.FileCode),
		Title:           title,
		Description:     CleanDescription(r.Description, title, duration),
		Duration:        duration,
		DurationSeconds: r.DurationSeconds,
		Views:           views,
		ViewsFormatted:  FormatViews(views),
		ThumbnailURL:    thumb,
		SplashURL:       splash,
		EmbedURL:        r.EmbedURL,
		DownloadURL:     r.DownloadURL,
		UploadedAt:      r.UploadedAt,
		Status:          status,
		CanPlay:         r.CanPlay,
		Source:          r.Source,
		Tags:            NormalizeTags(r.Tags, title),
		Size:            FormatSize(r.SizeBytes),
		SizeBytes:       r.SizeBytes,
	}
}

// Dedup drops videos without a file code and repeats of one, keeping the first occurrence
func Dedup(videos []model.Video) []model.Video {
	seen := make(map[string]struct{}, len(videos))
	out := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if v.FileCode == "" {
			continue
		}
		if _, dup := seen[v.FileCode]; dup {
			continue
		}
		seen[v.FileCode] = struct{}{}
		out = append(out, v)
	}
	return out
}
