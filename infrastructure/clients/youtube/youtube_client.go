package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/clients/upstream"
	"video-aggregator/infrastructure/logger"
	"video-aggregator/infrastructure/normalize"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	ProviderName = "youtube"

	// the Data API caps maxResults at 50
	maxPerPage = 50
	videoParts = "snippet,statistics,contentDetails,status"
)

// Client represents YouTube Data API client in API-key mode
type Client struct {
	service    *youtube.Service
	regionCode string
	embedBase  string
	timeout    time.Duration
	limiter    *rate.Limiter

	mu     sync.Mutex
	tokens map[string]string
}

// Config represents YouTube API configuration
type Config struct {
	APIKey       string
	BaseURL      string
	EmbedBaseURL string
	RegionCode   string
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
}

// NewYouTubeClient creates a new YouTube API client
func NewYouTubeClient(ctx context.Context, config *Config) (repository.IVideoProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("youtube: api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(config.BaseURL, "/")+"/"))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
	}

	embed := strings.TrimRight(config.EmbedBaseURL, "/")
	if embed == "" {
		embed = "https://www.youtube.com"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	limit := rate.Inf
	if config.RatePerSec > 0 {
		limit = rate.Limit(config.RatePerSec)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		service:    service,
		regionCode: config.RegionCode,
		embedBase:  embed,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		tokens:     make(map[string]string),
	}, nil
}

func (c *Client) Name() string { return ProviderName }

// ListVideos returns the most popular chart. Categories other than the charts become keyword searches
func (c *Client) ListVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	perPage := clampPerPage(req.PerPage)
	switch req.Category {
	case "", model.CategoryTrending, model.CategoryPopular:
	case model.CategoryRecent:
		return c.search(ctx, "recent", "", "date", req.Page, perPage)
	default:
		cat, ok := model.FindCategory(req.Category)
		if !ok {
			return nil, fmt.Errorf("%s list: %w", ProviderName, repository.ErrUnknownCategory)
		}
		return c.search(ctx, "category:"+cat.Slug, strings.Join(cat.Keywords, "|"), "viewCount", req.Page, perPage)
	}

	page := normalizePage(req.Page)
	fetch := func(ctx context.Context, token string) (string, int64, []*youtube.Video, error) {
		call := c.service.Videos.List(strings.Split(videoParts, ",")).
			Chart("mostPopular").
			MaxResults(int64(perPage))
		if c.regionCode != "" {
			call = call.RegionCode(c.regionCode)
		}
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return "", 0, nil, err
		}
		return resp.NextPageToken, totalResults(resp.PageInfo), resp.Items, nil
	}

	var (
		items []*youtube.Video
		total int64
	)
	err := c.walk(ctx, fmt.Sprintf("chart:%d", perPage), page, func(ctx context.Context, token string) (string, error) {
		next, t, vs, err := fetch(ctx, token)
		items, total = vs, t
		return next, err
	})
	if err != nil {
		return nil, c.wrap("list", err)
	}
	return c.toResponse(items, total, page, perPage), nil
}

// GetVideo looks up one video by id
func (c *Client) GetVideo(ctx context.Context, fileCode string) (*model.Video, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, c.wrap("get", err)
	}
	defer cancel()

	resp, err := c.service.Videos.List(strings.Split(videoParts, ",")).Id(fileCode).Context(ctx).Do()
	if err != nil {
		return nil, c.wrap("get", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%s get %s: %w", ProviderName, fileCode, repository.ErrNotFound)
	}
	v := c.toVideo(resp.Items[0])
	return &v, nil
}

// SearchVideos searches by relevance, then resolves details for the hits
func (c *Client) SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.ApiResponse, error) {
	return c.search(ctx, "search:"+strings.ToLower(req.Query), req.Query, "relevance", req.Page, clampPerPage(req.Limit))
}

func (c *Client) search(ctx context.Context, key, q, order string, page, perPage int) (*dto.ApiResponse, error) {
	page = normalizePage(page)
	var (
		ids   []string
		total int64
	)
	err := c.walk(ctx, fmt.Sprintf("%s:%s:%d", key, order, perPage), page, func(ctx context.Context, token string) (string, error) {
		call := c.service.Search.List([]string{"id"}).
			Type("video").
			Order(order).
			MaxResults(int64(perPage))
		if q != "" {
			call = call.Q(q)
		}
		if c.regionCode != "" {
			call = call.RegionCode(c.regionCode)
		}
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return "", err
		}
		ids = ids[:0]
		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				ids = append(ids, item.Id.VideoId)
			}
		}
		total = totalResults(resp.PageInfo)
		return resp.NextPageToken, nil
	})
	if err != nil {
		return nil, c.wrap("search", err)
	}
	if len(ids) == 0 {
		return c.toResponse(nil, total, page, perPage), nil
	}

	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, c.wrap("search", err)
	}
	defer cancel()
	details, err := c.service.Videos.List(strings.Split(videoParts, ",")).Id(strings.Join(ids, ",")).Context(ctx).Do()
	if err != nil {
		return nil, c.wrap("search", err)
	}
	return c.toResponse(details.Items, total, page, perPage), nil
}

// walk reaches the requested page, memoising every page token it sees.
// Pages with an unknown token are reached by following tokens from the closest known page
func (c *Client) walk(ctx context.Context, key string, page int, fetch func(ctx context.Context, token string) (string, error)) error {
	start, token := 1, ""
	c.mu.Lock()
	for p := page; p > 1; p-- {
		if t, ok := c.tokens[tokenKey(key, p)]; ok {
			start, token = p, t
			break
		}
	}
	c.mu.Unlock()

	for p := start; p <= page; p++ {
		if p > start && token == "" {
			// the upstream ran out of pages before the one asked for
			return fmt.Errorf("page %d: %w", page, repository.ErrNotFound)
		}
		callCtx, cancel, err := c.begin(ctx)
		if err != nil {
			return err
		}
		next, err := fetch(callCtx, token)
		cancel()
		if err != nil {
			return err
		}
		if next != "" {
			c.mu.Lock()
			c.tokens[tokenKey(key, p+1)] = next
			c.mu.Unlock()
		}
		token = next
	}
	return nil
}

func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, nil
}

func (c *Client) wrap(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUnknownCategory) {
		return fmt.Errorf("%s %s: %w", ProviderName, op, err)
	}
	upErr := &upstream.Error{Provider: ProviderName, Op: op, Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		upErr.StatusCode = apiErr.Code
		if apiErr.Code == http.StatusForbidden {
			logger.GetLogger().WithField("error", apiErr.Message).Warn("YouTube quota or key rejected")
		}
	}
	return upErr
}

func (c *Client) toResponse(items []*youtube.Video, total int64, page, perPage int) *dto.ApiResponse {
	videos := make([]model.Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, c.toVideo(item))
	}
	if total < int64(len(videos)) {
		total = int64(len(videos))
	}
	return &dto.ApiResponse{
		Files:        normalize.Dedup(videos),
		TotalPages:   int((total + int64(perPage) - 1) / int64(perPage)),
		CurrentPage:  page,
		ResultsTotal: int(total),
		PerPageLimit: perPage,
		Source:       ProviderName,
		Status:       http.StatusOK,
	}
}

// toVideo converts YouTube API video to our model
func (c *Client) toVideo(video *youtube.Video) model.Video {
	raw := normalize.Raw{
		FileCode: video.Id,
		EmbedURL: fmt.Sprintf("%s/embed/%s", c.embedBase, video.Id),
		Status:   model.VideoStatusActive,
		CanPlay:  true,
		Source:   ProviderName,
	}
	if s := video.Snippet; s != nil {
		raw.Title = s.Title
		raw.Description = s.Description
		raw.Tags = s.Tags
		raw.UploadedAt = normalize.ParseTime(s.PublishedAt)
		if s.Thumbnails != nil {
			raw.ThumbnailURL = thumbnail(s.Thumbnails.Medium, s.Thumbnails.High, s.Thumbnails.Default)
			raw.SplashURL = thumbnail(s.Thumbnails.Maxres, s.Thumbnails.High, s.Thumbnails.Medium)
		}
	}
	if video.Statistics != nil {
		raw.Views = int64(video.Statistics.ViewCount)
	}
	if video.ContentDetails != nil {
		if secs, err := normalize.ParseISODuration(video.ContentDetails.Duration); err == nil {
			raw.DurationSeconds = secs
		}
	}
	if st := video.Status; st != nil {
		raw.CanPlay = st.Embeddable
		if st.PrivacyStatus != "" && st.PrivacyStatus != "public" {
			raw.Status = model.VideoStatusPending
		}
	}
	return normalize.Video(raw)
}

func thumbnail(candidates ...*youtube.Thumbnail) string {
	for _, t := range candidates {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

func totalResults(info *youtube.PageInfo) int64 {
	if info == nil {
		return 0
	}
	return info.TotalResults
}

func tokenKey(key string, page int) string {
	return fmt.Sprintf("%s#%d", key, page)
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func clampPerPage(n int) int {
	if n <= 0 {
		return 24
	}
	if n > maxPerPage {
		return maxPerPage
	}
	return n
}
