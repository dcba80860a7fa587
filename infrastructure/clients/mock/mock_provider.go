package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/normalize"
)

const (
	ProviderName = "mock"

	codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeLength   = 12
)

// epoch anchors upload times so payloads do not drift between runs
var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	adjectives = []string{"Amazing", "Epic", "Relaxing", "Incredible", "Classic", "Live", "Ultimate", "Hidden", "Daily", "Best"}
	subjects   = []string{"Sunset", "City Walk", "Road Trip", "Highlights", "Compilation", "Tutorial", "Session", "Moments", "Adventure", "Story"}
	suffixes   = []string{"", "Part 2", "Full Version", "Remastered", "Behind The Scenes", "Extended Cut"}
)

// Provider generates deterministic placeholder videos when every upstream is down
type Provider struct {
	totalPages int
	perPage    int
	imageBase  string
}

func NewMockProvider(totalPages, perPage int) repository.IVideoProvider {
	if totalPages <= 0 {
		totalPages = 10
	}
	if perPage <= 0 {
		perPage = 24
	}
	return &Provider{totalPages: totalPages, perPage: perPage, imageBase: "https://picsum.photos/seed"}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) ListVideos(_ context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	page, perPage := p.paging(req.Page, req.PerPage)
	rng := seeded("list", req.Category, "", page, perPage)

	var topic string
	if cat, ok := model.FindCategory(req.Category); ok && len(cat.Keywords) > 0 {
		topic = cat.Name
	}
	videos := make([]model.Video, 0, perPage)
	for i := 0; i < perPage; i++ {
		videos = append(videos, p.video(rng, randomCode(rng), topic))
	}
	return p.response(videos, page, perPage), nil
}

func (p *Provider) GetVideo(_ context.Context, fileCode string) (*model.Video, error) {
	rng := seeded("get", "", fileCode, 1, 1)
	v := p.video(rng, fileCode, "")
	return &v, nil
}

func (p *Provider) SearchVideos(_ context.Context, req *dto.VideoSearchRequest) (*dto.ApiResponse, error) {
	page, perPage := p.paging(req.Page, req.Limit)
	query := strings.TrimSpace(req.Query)
	rng := seeded("search", "", strings.ToLower(query), page, perPage)

	videos := make([]model.Video, 0, perPage)
	for i := 0; i < perPage; i++ {
		videos = append(videos, p.video(rng, randomCode(rng), query))
	}
	return p.response(videos, page, perPage), nil
}

func (p *Provider) paging(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = p.perPage
	}
	return page, perPage
}

func (p *Provider) response(videos []model.Video, page, perPage int) *dto.ApiResponse {
	return &dto.ApiResponse{
		Files:        videos,
		TotalPages:   p.totalPages,
		CurrentPage:  page,
		ResultsTotal: p.totalPages * perPage,
		PerPageLimit: perPage,
		Source:       ProviderName,
		Status:       http.StatusOK,
		Message:      "mock data",
	}
}

// video builds one synthetic video. A non-empty topic is always part of the title
func (p *Provider) video(rng *rand.Rand, code, topic string) model.Video {
	title := fmt.Sprintf("%s %s", pick(rng, adjectives), pick(rng, subjects))
	if topic != "" {
		title = fmt.Sprintf("%s %s", title, topic)
	}
	if s := pick(rng, suffixes); s != "" {
		title = fmt.Sprintf("%s - %s", title, s)
	}
	duration := 30 + rng.Int63n(2*60*60-30+1)
	uploaded := epoch.Add(-time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))

	return normalize.Video(normalize.Raw{
		FileCode:        code,
		Title:           title,
		DurationSeconds: duration,
		Views:           rng.Int63n(5_000_000),
		SizeBytes:       (5 + rng.Int63n(2000)) << 20,
		ThumbnailURL:    fmt.Sprintf("%s/%s/640/360", p.imageBase, code),
		SplashURL:       fmt.Sprintf("%s/%s/1280/720", p.imageBase, code),
		UploadedAt:      uploaded,
		Status:          model.VideoStatusMock,
		CanPlay:         false,
		Source:          ProviderName,
	})
}

func seeded(op, category, query string, page, perPage int) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d", op, category, query, page, perPage)
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func randomCode(rng *rand.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func pick(rng *rand.Rand, words []string) string {
	return words[rng.Intn(len(words))]
}
