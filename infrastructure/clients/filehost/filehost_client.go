package filehost

import (
	"context"
	"fmt"
	"strings"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/clients/upstream"
	"video-aggregator/infrastructure/normalize"
)

const ProviderName = "filehost"

// Config represents the file hosting API configuration
type Config struct {
	upstream.Options
	APIKey       string
	EmbedBaseURL string
}

// Client talks to a file-code based hosting API (list, info, search)
type Client struct {
	api       *upstream.Client
	apiKey    string
	embedBase string
}

type listParams struct {
	Key     string `url:"key"`
	Page    int    `url:"page,omitempty"`
	PerPage int    `url:"per_page,omitempty"`
}

type infoParams struct {
	Key      string `url:"key"`
	FileCode string `url:"file_code"`
}

type searchParams struct {
	Key        string `url:"key"`
	SearchTerm string `url:"search_term"`
}

type file struct {
	FileCode    string              `json:"file_code"`
	AltCode     string              `json:"filecode"`
	Title       string              `json:"title"`
	Length      upstream.FlexString `json:"length"`
	Views       upstream.FlexString `json:"views"`
	Size        upstream.FlexString `json:"size"`
	SingleImg   string              `json:"single_img"`
	SplashImg   string              `json:"splash_img"`
	DownloadURL string              `json:"download_url"`
	Uploaded    string              `json:"uploaded"`
	CanPlay     upstream.FlexBool   `json:"canplay"`
	Status      upstream.FlexString `json:"status"`
}

type listResponse struct {
	Msg    string `json:"msg"`
	Status int    `json:"status"`
	Result struct {
		ResultsTotal upstream.FlexString `json:"results_total"`
		Pages        upstream.FlexString `json:"pages"`
		Files        []file              `json:"files"`
	} `json:"result"`
}

type filesResponse struct {
	Msg    string `json:"msg"`
	Status int    `json:"status"`
	Result []file `json:"result"`
}

func NewFilehostClient(cfg *Config) (repository.IVideoProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("filehost: api key is required")
	}
	cfg.Options.Provider = ProviderName
	api, err := upstream.NewClient(cfg.Options)
	if err != nil {
		return nil, err
	}
	embed := strings.TrimRight(cfg.EmbedBaseURL, "/")
	if embed == "" {
		embed = api.BaseURL()
	}
	return &Client{api: api, apiKey: cfg.APIKey, embedBase: embed}, nil
}

func (c *Client) Name() string { return ProviderName }

// ListVideos pages through the account's files. A category becomes a keyword search
func (c *Client) ListVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	if req.Category != "" {
		if cat, ok := model.FindCategory(req.Category); ok && len(cat.Keywords) > 0 {
			return c.SearchVideos(ctx, &dto.VideoSearchRequest{Query: strings.Join(cat.Keywords, " "), Page: req.Page, Limit: req.PerPage})
		}
	}

	var resp listResponse
	params := listParams{Key: c.apiKey, Page: req.Page, PerPage: req.PerPage}
	if err := c.api.GetJSON(ctx, "list", "api/file/list", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, &upstream.Error{Provider: ProviderName, Op: "list", StatusCode: resp.Status, Err: fmt.Errorf("api: %s", resp.Msg)}
	}

	videos := make([]model.Video, 0, len(resp.Result.Files))
	for _, f := range resp.Result.Files {
		videos = append(videos, c.toVideo(f))
	}
	total := int(resp.Result.ResultsTotal.Int64())
	if total == 0 {
		total = len(videos)
	}
	pages := int(resp.Result.Pages.Int64())
	if pages == 0 && req.PerPage > 0 {
		pages = (total + req.PerPage - 1) / req.PerPage
	}
	return &dto.ApiResponse{
		Files:        normalize.Dedup(videos),
		TotalPages:   pages,
		CurrentPage:  req.Page,
		ResultsTotal: total,
		PerPageLimit: req.PerPage,
		Source:       ProviderName,
		Status:       resp.Status,
		Message:      resp.Msg,
	}, nil
}

// GetVideo fetches file info for one file code
func (c *Client) GetVideo(ctx context.Context, fileCode string) (*model.Video, error) {
	var resp filesResponse
	if err := c.api.GetJSON(ctx, "info", "api/file/info", infoParams{Key: c.apiKey, FileCode: fileCode}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, &upstream.Error{Provider: ProviderName, Op: "info", StatusCode: resp.Status, Err: fmt.Errorf("api: %s", resp.Msg)}
	}
	for _, f := range resp.Result {
		// info reports missing files as status 404 inside an OK envelope
		if f.Status.Int64() == 404 {
			continue
		}
		v := c.toVideo(f)
		if v.FileCode == "" {
			v.FileCode = fileCode
		}
		return &v, nil
	}
	return nil, fmt.Errorf("%s info %s: %w", ProviderName, fileCode, repository.ErrNotFound)
}

// SearchVideos runs a title search. The API does not paginate, so paging is applied locally
func (c *Client) SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.ApiResponse, error) {
	var resp filesResponse
	if err := c.api.GetJSON(ctx, "search", "api/search/videos", searchParams{Key: c.apiKey, SearchTerm: req.Query}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, &upstream.Error{Provider: ProviderName, Op: "search", StatusCode: resp.Status, Err: fmt.Errorf("api: %s", resp.Msg)}
	}
	videos := make([]model.Video, 0, len(resp.Result))
	for _, f := range resp.Result {
		videos = append(videos, c.toVideo(f))
	}
	return upstream.PageLocally(normalize.Dedup(videos), req.Page, req.Limit, ProviderName), nil
}

func (c *Client) toVideo(f file) model.Video {
	code := f.FileCode
	if code == "" {
		code = f.AltCode
	}
	status := model.VideoStatusActive
	if !f.CanPlay {
		status = model.VideoStatusPending
	}
	download := f.DownloadURL
	if download == "" && code != "" {
		download = fmt.Sprintf("%s/d/%s", c.api.BaseURL(), code)
	}
	return normalize.Video(normalize.Raw{
		FileCode:        code,
		Title:           f.Title,
		DurationSeconds: normalize.ParseSeconds(f.Length.String()),
		Views:           f.Views.Int64(),
		SizeBytes:       f.Size.Int64(),
		ThumbnailURL:    f.SingleImg,
		SplashURL:       f.SplashImg,
		EmbedURL:        fmt.Sprintf("%s/e/%s", c.embedBase, code),
		DownloadURL:     download,
		UploadedAt:      normalize.ParseTime(f.Uploaded),
		Status:          status,
		CanPlay:         bool(f.CanPlay),
		Source:          ProviderName,
	})
}
