package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"video-aggregator/domain/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewCacheHub()
	assert.NotPanics(t, func() { hub.Publish(dto.CacheEvent{Type: dto.EventCacheInvalidated}) })
	assert.Equal(t, 0, hub.Subscribers())
}

func TestServeStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewCacheHub()
	router := gin.New()
	router.GET("/events", hub.Serve)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(dto.CacheEvent{Type: dto.EventCollectionLoaded, Videos: 42})

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, "cache", event)

	var got dto.CacheEvent
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, dto.EventCollectionLoaded, got.Type)
	assert.Equal(t, 42, got.Videos)

	cancel()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
