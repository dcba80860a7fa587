package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/clients/upstream"
	"video-aggregator/infrastructure/normalize"
)

const ProviderName = "catalog"

// Config represents the catalogue API configuration
type Config struct {
	upstream.Options
	APIKey string
}

// Client talks to a paginated REST video catalogue
type Client struct {
	api    *upstream.Client
	apiKey string
}

type listParams struct {
	APIKey   string `url:"api_key,omitempty"`
	Page     int    `url:"page,omitempty"`
	Limit    int    `url:"limit,omitempty"`
	Category string `url:"category,omitempty"`
}

type searchParams struct {
	APIKey string `url:"api_key,omitempty"`
	Q      string `url:"q"`
	Page   int    `url:"page,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

type keyParams struct {
	APIKey string `url:"api_key,omitempty"`
}

type video struct {
	ID          upstream.FlexString `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Duration    upstream.FlexString `json:"duration"`
	Views       upstream.FlexString `json:"views"`
	Thumbnail   string              `json:"thumbnail"`
	Preview     string              `json:"preview"`
	EmbedURL    string              `json:"embed_url"`
	DownloadURL string              `json:"download_url"`
	CreatedAt   string              `json:"created_at"`
	Size        upstream.FlexString `json:"size"`
	Tags        []string            `json:"tags"`
	Status      string              `json:"status"`
}

type pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
	Limit int `json:"limit"`
}

type listResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Videos     []video    `json:"videos"`
		Pagination pagination `json:"pagination"`
	} `json:"data"`
}

type itemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    video  `json:"data"`
}

func NewCatalogClient(cfg *Config) (repository.IVideoProvider, error) {
	cfg.Options.Provider = ProviderName
	api, err := upstream.NewClient(cfg.Options)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, apiKey: cfg.APIKey}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) ListVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	var resp listResponse
	params := listParams{APIKey: c.apiKey, Page: req.Page, Limit: req.PerPage, Category: req.Category}
	if err := c.api.GetJSON(ctx, "list", "v1/videos", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &upstream.Error{Provider: ProviderName, Op: "list", Err: fmt.Errorf("api: %s", resp.Message)}
	}
	return c.toResponse(resp, req.Page, req.PerPage), nil
}

func (c *Client) GetVideo(ctx context.Context, fileCode string) (*model.Video, error) {
	var resp itemResponse
	err := c.api.GetJSON(ctx, "get", "v1/videos/"+url.PathEscape(fileCode), keyParams{APIKey: c.apiKey}, &resp)
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s get %s: %w", ProviderName, fileCode, repository.ErrNotFound)
		}
		return nil, err
	}
	if !resp.Success || resp.Data.ID == "" {
		return nil, fmt.Errorf("%s get %s: %w", ProviderName, fileCode, repository.ErrNotFound)
	}
	v := c.toVideo(resp.Data)
	return &v, nil
}

func (c *Client) SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.ApiResponse, error) {
	var resp listResponse
	params := searchParams{APIKey: c.apiKey, Q: req.Query, Page: req.Page, Limit: req.Limit}
	if err := c.api.GetJSON(ctx, "search", "v1/search", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &upstream.Error{Provider: ProviderName, Op: "search", Err: fmt.Errorf("api: %s", resp.Message)}
	}
	return c.toResponse(resp, req.Page, req.Limit), nil
}

func (c *Client) toResponse(resp listResponse, page, perPage int) *dto.ApiResponse {
	videos := make([]model.Video, 0, len(resp.Data.Videos))
	for _, v := range resp.Data.Videos {
		videos = append(videos, c.toVideo(v))
	}
	p := resp.Data.Pagination
	if p.Page == 0 {
		p.Page = page
	}
	if p.Limit == 0 {
		p.Limit = perPage
	}
	if p.Total == 0 {
		p.Total = len(videos)
	}
	if p.Pages == 0 && p.Limit > 0 {
		p.Pages = (p.Total + p.Limit - 1) / p.Limit
	}
	return &dto.ApiResponse{
		Files:        normalize.Dedup(videos),
		TotalPages:   p.Pages,
		CurrentPage:  p.Page,
		ResultsTotal: p.Total,
		PerPageLimit: p.Limit,
		Source:       ProviderName,
		Status:       http.StatusOK,
	}
}

func (c *Client) toVideo(v video) model.Video {
	id := v.ID.String()
	embed := v.EmbedURL
	if embed == "" && id != "" {
		embed = fmt.Sprintf("%s/embed/%s", c.api.BaseURL(), id)
	}
	status := strings.ToLower(v.Status)
	return normalize.Video(normalize.Raw{
		FileCode:        id,
		Title:           v.Name,
		Description:     v.Description,
		DurationSeconds: v.Duration.Int64(),
		Views:           v.Views.Int64(),
		SizeBytes:       v.Size.Int64(),
		ThumbnailURL:    v.Thumbnail,
		SplashURL:       v.Preview,
		EmbedURL:        embed,
		DownloadURL:     v.DownloadURL,
		UploadedAt:      normalize.ParseTime(v.CreatedAt),
		Status:          status,
		CanPlay:         status == "" || status == model.VideoStatusActive,
		Source:          ProviderName,
		Tags:            v.Tags,
	})
}
