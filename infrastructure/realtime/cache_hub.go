package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"video-aggregator/domain/dto"

	"github.com/gin-gonic/gin"
)

const eventName = "cache"

// Hub fans cache events out to server-sent event subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan dto.CacheEvent]struct{}
}

func NewCacheHub() *Hub {
	return &Hub{subs: make(map[chan dto.CacheEvent]struct{})}
}

// Serve streams events until the client goes away.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := make(chan dto.CacheEvent, 8)
	h.addSubscriber(ch)
	defer h.removeSubscriber(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + eventName + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Publish delivers evt to every subscriber; slow subscribers miss it
func (h *Hub) Publish(evt dto.CacheEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) addSubscriber(ch chan dto.CacheEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
}

func (h *Hub) removeSubscriber(ch chan dto.CacheEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
	close(ch)
}
