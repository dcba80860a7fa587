package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/utils"
	httpHandler "video-aggregator/interfaces/http"
	"video-aggregator/interfaces/middleware"
	"video-aggregator/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type MockVideoUseCase struct {
	mock.Mock
}

func (m *MockVideoUseCase) GetVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.ApiResponse)
	return resp, args.Error(1)
}

func (m *MockVideoUseCase) GetVideosByCategory(ctx context.Context, slug string, page, perPage int) (*dto.ApiResponse, error) {
	args := m.Called(ctx, slug, page, perPage)
	resp, _ := args.Get(0).(*dto.ApiResponse)
	return resp, args.Error(1)
}

func (m *MockVideoUseCase) GetVideo(ctx context.Context, fileCode string) (*model.Video, error) {
	args := m.Called(ctx, fileCode)
	v, _ := args.Get(0).(*model.Video)
	return v, args.Error(1)
}

func (m *MockVideoUseCase) SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.SearchResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.SearchResponse)
	return resp, args.Error(1)
}

func (m *MockVideoUseCase) GetRelatedVideos(ctx context.Context, fileCode string, limit int) ([]model.Video, error) {
	args := m.Called(ctx, fileCode, limit)
	vs, _ := args.Get(0).([]model.Video)
	return vs, args.Error(1)
}

func (m *MockVideoUseCase) GetTrendingVideos(ctx context.Context, limit int) ([]model.Video, error) {
	args := m.Called(ctx, limit)
	vs, _ := args.Get(0).([]model.Video)
	return vs, args.Error(1)
}

func (m *MockVideoUseCase) GetRecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	args := m.Called(ctx, limit)
	vs, _ := args.Get(0).([]model.Video)
	return vs, args.Error(1)
}

func (m *MockVideoUseCase) LoadAllVideos(ctx context.Context) ([]model.Video, error) {
	args := m.Called(ctx)
	vs, _ := args.Get(0).([]model.Video)
	return vs, args.Error(1)
}

func (m *MockVideoUseCase) Reload(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVideoUseCase) InvalidateCache(ctx context.Context, scope string) error {
	return m.Called(ctx, scope).Error(0)
}

func (m *MockVideoUseCase) CacheStats(ctx context.Context) dto.CacheStats {
	return m.Called(ctx).Get(0).(dto.CacheStats)
}

func (m *MockVideoUseCase) Warmup(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockVideoUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newRouter(uc *MockVideoUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return server.InitiateRouter(
		httpHandler.NewVideoHandler(uc),
		httpHandler.NewAdminHandler(uc, nil),
		httpHandler.NewHealthHandler(uc),
		secret,
		[]string{"https://videos.example"},
	)
}

func do(t *testing.T, router http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var payload map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w, payload
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateAdminToken("ops", secret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestGetVideosRoute(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("GetVideos", mock.Anything, &dto.VideoListRequest{Page: 2, PerPage: 12}).
		Return(&dto.ApiResponse{Files: []model.Video{{FileCode: "abc"}}, CurrentPage: 2, Source: "filehost"}, nil)
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/api/videos?page=2&per_page=12", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["success"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "filehost", data["source"])
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestGetVideoRoute(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("GetVideo", mock.Anything, "abc").Return(&model.Video{FileCode: "abc", Title: "Clip"}, nil)
	uc.On("GetVideo", mock.Anything, " ").Return(nil, repository.ErrInvalidFileCode)
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/api/videos/abc", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Clip", payload["data"].(map[string]interface{})["title"])

	w, payload = do(t, router, http.MethodGet, "/api/videos/%20", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, repository.ErrInvalidFileCode.Error(), payload["message"])
}

func TestRelatedRoute(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("GetRelatedVideos", mock.Anything, "abc", 4).Return([]model.Video{{FileCode: "x"}}, nil)
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/api/videos/abc/related?limit=4", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, payload["data"], 1)
}

func TestSearchRoute(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("SearchVideos", mock.Anything, &dto.VideoSearchRequest{Query: "cats", Page: 1, Limit: 5}).
		Return(&dto.SearchResponse{Query: "cats", Results: []model.SearchResult{{Video: model.Video{FileCode: "c"}, Relevance: 3}}}, nil)
	uc.On("SearchVideos", mock.Anything, &dto.VideoSearchRequest{Query: "", Page: 1}).Return(nil, repository.ErrEmptyQuery)
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/api/search?q=cats&limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cats", payload["data"].(map[string]interface{})["query"])

	w, _ = do(t, router, http.MethodGet, "/api/search", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryRoutes(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("GetVideosByCategory", mock.Anything, "music", 1, 0).Return(&dto.ApiResponse{Source: "collection"}, nil)
	uc.On("GetVideosByCategory", mock.Anything, "opera", 1, 0).Return(nil, repository.ErrUnknownCategory)
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, payload["data"], len(model.Categories()))

	w, _ = do(t, router, http.MethodGet, "/api/categories/music", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodGet, "/api/categories/opera", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrendingAndRecentRoutes(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("GetTrendingVideos", mock.Anything, 0).Return([]model.Video{{FileCode: "t"}}, nil)
	uc.On("GetRecentVideos", mock.Anything, 3).Return([]model.Video{{FileCode: "r"}}, nil)
	router := newRouter(uc)

	w, _ := do(t, router, http.MethodGet, "/api/trending", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, router, http.MethodGet, "/api/recent?limit=3", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("CacheStats", mock.Anything).Return(dto.CacheStats{Collection: 42})
	router := newRouter(uc)

	w, payload := do(t, router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, float64(42), payload["collection"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	uc := &MockVideoUseCase{}
	router := newRouter(uc)

	w, _ := do(t, router, http.MethodGet, "/api/cache/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, payload := do(t, router, http.MethodPost, "/api/admin/cache/invalidate", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "That's not even a token", payload["responseMessage"])

	viewer, err := utils.GenerateToken(map[string]interface{}{"sub": "someone", "role": "viewer"}, secret)
	require.NoError(t, err)
	w, _ = do(t, router, http.MethodPost, "/api/admin/cache/reload", "", viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	expired, err := utils.GenerateToken(map[string]interface{}{"role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
	require.NoError(t, err)
	w, payload = do(t, router, http.MethodPost, "/api/admin/cache/reload", "", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Timing is everything", payload["responseMessage"])

	forged, err := utils.GenerateAdminToken("ops", "other-secret", time.Hour)
	require.NoError(t, err)
	w, _ = do(t, router, http.MethodPost, "/api/admin/cache/reload", "", forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	uc.AssertNotCalled(t, "Reload", mock.Anything)
}

func TestAdminInvalidate(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("InvalidateCache", mock.Anything, "search").Return(nil)
	uc.On("InvalidateCache", mock.Anything, "all").Return(nil)
	uc.On("InvalidateCache", mock.Anything, "bogus").Return(repository.ErrUnknownScope)
	router := newRouter(uc)
	token := adminToken(t)

	w, payload := do(t, router, http.MethodPost, "/api/admin/cache/invalidate", `{"scope":"search"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "search", payload["data"].(map[string]interface{})["scope"])

	w, _ = do(t, router, http.MethodPost, "/api/admin/cache/invalidate", "", token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/admin/cache/invalidate", `{"scope":"bogus"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/admin/cache/invalidate", `{"scope":`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminReloadAndStats(t *testing.T) {
	uc := &MockVideoUseCase{}
	uc.On("Reload", mock.Anything).Return(120, nil)
	uc.On("CacheStats", mock.Anything).Return(dto.CacheStats{Pages: 3, Hits: 9, PersistentTier: "postgres"})
	router := newRouter(uc)
	token := adminToken(t)

	w, payload := do(t, router, http.MethodPost, "/api/admin/cache/reload", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(120), payload["data"].(map[string]interface{})["videos"])

	w, payload = do(t, router, http.MethodGet, "/api/cache/stats", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["hits"])
	assert.Equal(t, "postgres", data["persistent_tier"])
}

func TestCORS(t *testing.T) {
	router := newRouter(&MockVideoUseCase{})

	req := httptest.NewRequest(http.MethodOptions, "/api/videos", nil)
	req.Header.Set("Origin", "https://videos.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://videos.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/videos", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminEventsWithoutHub(t *testing.T) {
	router := newRouter(&MockVideoUseCase{})

	w, _ := do(t, router, http.MethodGet, "/api/admin/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, router, http.MethodGet, "/api/admin/events", "", adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
