package mock

import (
	"context"
	"strings"
	"testing"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListVideosIsDeterministic(t *testing.T) {
	p := NewMockProvider(10, 6)
	req := &dto.VideoListRequest{Page: 2, PerPage: 6}

	first, err := p.ListVideos(context.Background(), req)
	require.NoError(t, err)
	second, err := p.ListVideos(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Files, 6)
	assert.Equal(t, 10, first.TotalPages)
	assert.Equal(t, 2, first.CurrentPage)
	assert.Equal(t, ProviderName, first.Source)

	other, err := p.ListVideos(context.Background(), &dto.VideoListRequest{Page: 3, PerPage: 6})
	require.NoError(t, err)
	assert.NotEqual(t, first.Files[0].FileCode, other.Files[0].FileCode)
}

func TestMockVideoShape(t *testing.T) {
	p := NewMockProvider(0, 0)
	resp, err := p.ListVideos(context.Background(), &dto.VideoListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Files, 24)

	for _, v := range resp.Files {
		assert.Len(t, v.FileCode, 12)
		assert.Equal(t, strings.ToLower(v.FileCode), v.FileCode)
		assert.GreaterOrEqual(t, v.DurationSeconds, int64(30))
		assert.LessOrEqual(t, v.DurationSeconds, int64(7200))
		assert.True(t, v.UploadedAt.Before(epoch) || v.UploadedAt.Equal(epoch))
		assert.Equal(t, model.VideoStatusMock, v.Status)
		assert.NotEmpty(t, v.ThumbnailURL)
		assert.NotEmpty(t, v.Description)
	}
}

func TestMockCategoryTitles(t *testing.T) {
	p := NewMockProvider(10, 4)
	resp, err := p.ListVideos(context.Background(), &dto.VideoListRequest{Page: 1, PerPage: 4, Category: "gaming"})
	require.NoError(t, err)
	for _, v := range resp.Files {
		assert.Contains(t, v.Title, "Gaming")
	}
}

func TestMockSearchTitlesContainQuery(t *testing.T) {
	p := NewMockProvider(10, 5)
	resp, err := p.SearchVideos(context.Background(), &dto.VideoSearchRequest{Query: "cats", Page: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, resp.Files, 5)
	for _, v := range resp.Files {
		assert.Contains(t, strings.ToLower(v.Title), "cats")
	}
}

func TestMockGetVideoKeepsCode(t *testing.T) {
	p := NewMockProvider(10, 5)
	v, err := p.GetVideo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v.FileCode)

	again, err := p.GetVideo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, v, again)
}
