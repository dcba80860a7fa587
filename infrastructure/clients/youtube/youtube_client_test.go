package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/clients/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoItem = `{"kind":"youtube#video","id":"%s","snippet":{"title":"Lo-Fi Beats %s","description":"Relax","publishedAt":"2024-03-01T12:00:00Z","tags":["lofi","beats"],"thumbnails":{"medium":{"url":"https://i.ytimg.com/%s/mq.jpg"},"high":{"url":"https://i.ytimg.com/%s/hq.jpg"}}},"statistics":{"viewCount":"12345"},"contentDetails":{"duration":"PT1H2M3S"},"status":{"privacyStatus":"public","embeddable":true}}`

func item(id string) string {
	return strings.ReplaceAll(videoItem, "%s", id)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) repository.IVideoProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewYouTubeClient(context.Background(), &Config{APIKey: "yt-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestListVideosFollowsPageTokens(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/videos"))
		assert.Equal(t, "mostPopular", r.URL.Query().Get("chart"))
		assert.Equal(t, "yt-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"items":[` + item("aaa") + `],"nextPageToken":"tok2","pageInfo":{"totalResults":4,"resultsPerPage":2}}`))
		case "tok2":
			_, _ = w.Write([]byte(`{"items":[` + item("bbb") + `],"nextPageToken":"tok3","pageInfo":{"totalResults":4,"resultsPerPage":2}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	resp, err := c.ListVideos(context.Background(), &dto.VideoListRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "bbb", resp.Files[0].FileCode)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// the token for page 2 is memoised
	_, err = c.ListVideos(context.Background(), &dto.VideoListRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListVideosMapsFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[` + item("xyz") + `],"pageInfo":{"totalResults":1}}`))
	})

	resp, err := c.ListVideos(context.Background(), &dto.VideoListRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)

	v := resp.Files[0]
	assert.Equal(t, "xyz", v.FileCode)
	assert.Equal(t, "1:02:03", v.Duration)
	assert.Equal(t, int64(3723), v.DurationSeconds)
	assert.Equal(t, int64(12345), v.Views)
	assert.Equal(t, "https://i.ytimg.com/xyz/mq.jpg", v.ThumbnailURL)
	assert.Equal(t, "https://i.ytimg.com/xyz/hq.jpg", v.SplashURL)
	assert.Equal(t, "https://www.youtube.com/embed/xyz", v.EmbedURL)
	assert.Equal(t, []string{"lofi", "beats"}, v.Tags)
	assert.Equal(t, 2024, v.UploadedAt.Year())
	assert.True(t, v.CanPlay)
	assert.Equal(t, ProviderName, v.Source)
}

func TestSearchVideosResolvesDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			assert.Equal(t, "lofi", r.URL.Query().Get("q"))
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"s1"}},{"id":{"kind":"youtube#video","videoId":"s2"}}],"pageInfo":{"totalResults":2}}`))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			assert.Equal(t, "s1,s2", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"items":[` + item("s1") + `,` + item("s2") + `]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := c.SearchVideos(context.Background(), &dto.VideoSearchRequest{Query: "lofi", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "s1", resp.Files[0].FileCode)
	assert.Equal(t, 2, resp.ResultsTotal)
}

func TestGetVideoNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	_, err := c.GetVideo(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuotaErrorIsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded","errors":[{"reason":"quotaExceeded"}]}}`))
	})
	_, err := c.GetVideo(context.Background(), "abc")
	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
}

func TestNewYouTubeClientRequiresKey(t *testing.T) {
	_, err := NewYouTubeClient(context.Background(), &Config{})
	assert.Error(t, err)
}
