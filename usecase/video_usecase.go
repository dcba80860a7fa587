package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/logger"
	"video-aggregator/infrastructure/normalize"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	maxPerPage     = 100
	maxListLimit   = 50
	defaultLimit   = 12
	snapshotBatch  = 500
	sourceCombined = "collection"
)

// Cache scopes accepted by InvalidateCache
const (
	ScopeAll    = "all"
	ScopePages  = "pages"
	ScopeVideos = "videos"
	ScopeSearch = "search"
)

// IVideoUseCase defines the interface for video aggregation operations
type IVideoUseCase interface {
	GetVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error)
	GetVideosByCategory(ctx context.Context, slug string, page, perPage int) (*dto.ApiResponse, error)
	GetVideo(ctx context.Context, fileCode string) (*model.Video, error)
	SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.SearchResponse, error)
	GetRelatedVideos(ctx context.Context, fileCode string, limit int) ([]model.Video, error)
	GetTrendingVideos(ctx context.Context, limit int) ([]model.Video, error)
	GetRecentVideos(ctx context.Context, limit int) ([]model.Video, error)

	// LoadAllVideos pulls every page once; concurrent callers share the in-flight load
	LoadAllVideos(ctx context.Context) ([]model.Video, error)
	// Reload drops the collection and loads it again
	Reload(ctx context.Context) (int, error)
	InvalidateCache(ctx context.Context, scope string) error
	CacheStats(ctx context.Context) dto.CacheStats
	// Warmup restores the persisted snapshot, then loads the collection
	Warmup(ctx context.Context) error
	// PurgeExpired drops expired rows from the persistent snapshot
	PurgeExpired(ctx context.Context) (int64, error)
}

// VideoConfig tunes cache lifetimes and the full load
type VideoConfig struct {
	PageTTL         time.Duration
	VideoTTL        time.Duration
	SearchTTL       time.Duration
	CollectionTTL   time.Duration
	StaleGrace      time.Duration
	MaxPages        int
	LoadConcurrency int
	PerPage         int
}

func (c *VideoConfig) defaults() {
	if c.PageTTL <= 0 {
		c.PageTTL = 5 * time.Minute
	}
	if c.VideoTTL <= 0 {
		c.VideoTTL = 30 * time.Minute
	}
	if c.SearchTTL <= 0 {
		c.SearchTTL = 10 * time.Minute
	}
	if c.CollectionTTL <= 0 {
		c.CollectionTTL = 15 * time.Minute
	}
	if c.StaleGrace < 0 {
		c.StaleGrace = 0
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = 4
	}
	if c.PerPage <= 0 {
		c.PerPage = 24
	}
}

// VideoUseCase implements IVideoUseCase
type VideoUseCase struct {
	providers []repository.IVideoProvider
	mock      repository.IVideoProvider
	shared    repository.ISharedCache
	store     repository.IVideoCache // optional
	events    []repository.ICacheEventPublisher
	cfg       VideoConfig
	now       func() time.Time

	pages      *tier[dto.ApiResponse]
	videos     *tier[model.Video]
	searches   *tier[dto.SearchResponse]
	collection *tier[[]model.Video]

	loads singleflight.Group

	hits        atomic.Int64
	misses      atomic.Int64
	staleServed atomic.Int64
	mockServed  atomic.Int64
}

// NewVideoUseCase creates the video service. providers are tried in order, mock answers when all fail
func NewVideoUseCase(providers []repository.IVideoProvider, mock repository.IVideoProvider, shared repository.ISharedCache, cfg VideoConfig) *VideoUseCase {
	cfg.defaults()
	u := &VideoUseCase{
		providers: providers,
		mock:      mock,
		shared:    shared,
		cfg:       cfg,
		now:       time.Now,
	}
	u.initTiers()
	return u
}

// WithStore enables the persistent snapshot tier (fluent)
func (u *VideoUseCase) WithStore(store repository.IVideoCache) *VideoUseCase {
	u.store = store
	return u
}

// WithEvents publishes cache lifecycle events to every publisher (fluent)
func (u *VideoUseCase) WithEvents(events ...repository.ICacheEventPublisher) *VideoUseCase {
	u.events = append(u.events, events...)
	return u
}

func (u *VideoUseCase) publish(evt dto.CacheEvent) {
	evt.At = u.now()
	for _, p := range u.events {
		p.Publish(evt)
	}
}

// WithClock replaces the time source of the service and its caches
func (u *VideoUseCase) WithClock(now func() time.Time) *VideoUseCase {
	u.now = now
	u.initTiers()
	return u
}

func (u *VideoUseCase) initTiers() {
	u.pages = newTier[dto.ApiResponse](u.shared, u.cfg.StaleGrace, u.now)
	u.videos = newTier[model.Video](u.shared, u.cfg.StaleGrace, u.now)
	u.searches = newTier[dto.SearchResponse](u.shared, u.cfg.StaleGrace, u.now)
	u.collection = newTier[[]model.Video](u.shared, u.cfg.StaleGrace, u.now)
}

// GetVideos returns one feed page: page cache, then providers, then stale cache, then mock
func (u *VideoUseCase) GetVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error) {
	r := u.normalizeList(req)
	key := pageKey(r)

	if resp, ok := u.pages.get(ctx, key); ok {
		u.hits.Add(1)
		resp.Cached = true
		return &resp, nil
	}
	u.misses.Add(1)

	if resp, err := u.listFromProviders(ctx, r); err == nil {
		u.pages.set(ctx, key, *resp, u.cfg.PageTTL)
		return resp, nil
	}

	if resp, ok := u.pages.stale(key); ok {
		u.staleServed.Add(1)
		resp.Cached, resp.Stale = true, true
		return &resp, nil
	}
	return u.mockList(ctx, r)
}

func (u *VideoUseCase) normalizeList(req *dto.VideoListRequest) dto.VideoListRequest {
	r := dto.VideoListRequest{}
	if req != nil {
		r = *req
	}
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PerPage <= 0 {
		r.PerPage = u.cfg.PerPage
	}
	if r.PerPage > maxPerPage {
		r.PerPage = maxPerPage
	}
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	return r
}

// listFromProviders returns the first non-empty page from the fallback chain
func (u *VideoUseCase) listFromProviders(ctx context.Context, req dto.VideoListRequest) (*dto.ApiResponse, error) {
	var errs []error
	for _, p := range u.providers {
		resp, err := p.ListVideos(ctx, &req)
		if err == nil && len(resp.Files) == 0 {
			err = fmt.Errorf("%s list: empty result", p.Name())
		}
		if err != nil {
			logger.GetLogger().WithField("provider", p.Name()).WithField("error", err).Warn("provider list failed, trying next")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		resp.Files = normalize.Dedup(resp.Files)
		resp.Source = p.Name()
		return resp, nil
	}
	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

func (u *VideoUseCase) mockList(ctx context.Context, req dto.VideoListRequest) (*dto.ApiResponse, error) {
	u.mockServed.Add(1)
	logger.GetLogger().WithField("page", req.Page).WithField("category", req.Category).Warn("serving mock videos")
	return u.mock.ListVideos(ctx, &req)
}

// GetVideosByCategory browses the loaded collection by category, asking the providers when nothing matches
func (u *VideoUseCase) GetVideosByCategory(ctx context.Context, slug string, page, perPage int) (*dto.ApiResponse, error) {
	cat, ok := model.FindCategory(strings.ToLower(strings.TrimSpace(slug)))
	if !ok {
		return nil, repository.ErrUnknownCategory
	}
	r := u.normalizeList(&dto.VideoListRequest{Page: page, PerPage: perPage, Category: cat.Slug})

	matched := rankCategory(cat, u.loadedCollection(ctx), u.now())
	if len(matched) == 0 {
		return u.GetVideos(ctx, &r)
	}
	files, pages := paginate(matched, r.Page, r.PerPage)
	return &dto.ApiResponse{
		Files:        files,
		TotalPages:   pages,
		CurrentPage:  r.Page,
		ResultsTotal: len(matched),
		PerPageLimit: r.PerPage,
		Source:       sourceCombined,
		Status:       http.StatusOK,
		Cached:       true,
	}, nil
}

// GetVideo resolves one video: item cache, collection, snapshot, providers, stale, mock
func (u *VideoUseCase) GetVideo(ctx context.Context, fileCode string) (*model.Video, error) {
	fileCode = strings.TrimSpace(fileCode)
	if fileCode == "" {
		return nil, repository.ErrInvalidFileCode
	}
	key := keyItemPrefix + fileCode

	if v, ok := u.videos.get(ctx, key); ok {
		u.hits.Add(1)
		return &v, nil
	}
	if v, ok := u.fromCollection(ctx, fileCode); ok {
		u.hits.Add(1)
		u.videos.set(ctx, key, v, u.cfg.VideoTTL)
		return &v, nil
	}
	if u.store != nil {
		v, _, err := u.store.GetVideo(ctx, fileCode)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("snapshot lookup failed")
		} else if v != nil {
			u.hits.Add(1)
			u.videos.set(ctx, key, *v, u.cfg.VideoTTL)
			return v, nil
		}
	}
	u.misses.Add(1)

	for _, p := range u.providers {
		v, err := p.GetVideo(ctx, fileCode)
		if err != nil {
			entry := logger.GetLogger().WithField("provider", p.Name()).WithField("file_code", fileCode)
			if errors.Is(err, repository.ErrNotFound) {
				entry.Debug("video not found at provider")
			} else {
				entry.WithField("error", err).Warn("provider get failed, trying next")
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		v.Source = p.Name()
		u.videos.set(ctx, key, *v, u.cfg.VideoTTL)
		return v, nil
	}

	if v, ok := u.videos.stale(key); ok {
		u.staleServed.Add(1)
		return &v, nil
	}
	u.mockServed.Add(1)
	return u.mock.GetVideo(ctx, fileCode)
}

func (u *VideoUseCase) fromCollection(ctx context.Context, fileCode string) (model.Video, bool) {
	videos, ok := u.collection.get(ctx, keyAll)
	if !ok {
		videos, ok = u.collection.stale(keyAll)
	}
	if !ok {
		return model.Video{}, false
	}
	for _, v := range videos {
		if v.FileCode == fileCode {
			return v, true
		}
	}
	return model.Video{}, false
}

// SearchVideos ranks the loaded collection together with the providers' search results
func (u *VideoUseCase) SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.SearchResponse, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, repository.ErrEmptyQuery
	}
	r := *req
	r.Query = strings.Join(strings.Fields(r.Query), " ")
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = u.cfg.PerPage
	}
	if r.Limit > maxPerPage {
		r.Limit = maxPerPage
	}
	key := fmt.Sprintf("%s%s:%d:%d", keySearchPrefix, strings.ToLower(r.Query), r.Page, r.Limit)

	if resp, ok := u.searches.get(ctx, key); ok {
		u.hits.Add(1)
		return &resp, nil
	}
	u.misses.Add(1)

	upstream, err := u.searchProviders(ctx, r)
	ranked := rankSearch(r.Query, u.loadedCollection(ctx), upstream)

	if len(ranked) == 0 && err != nil {
		if resp, ok := u.searches.stale(key); ok {
			u.staleServed.Add(1)
			return &resp, nil
		}
		u.mockServed.Add(1)
		mockResp, mockErr := u.mock.SearchVideos(ctx, &r)
		if mockErr != nil {
			return nil, mockErr
		}
		return &dto.SearchResponse{
			Query:        r.Query,
			Results:      rankSearch(r.Query, nil, mockResp.Files),
			CurrentPage:  r.Page,
			TotalPages:   mockResp.TotalPages,
			ResultsTotal: mockResp.ResultsTotal,
			PerPageLimit: r.Limit,
		}, nil
	}

	results, pages := paginate(ranked, r.Page, r.Limit)
	resp := dto.SearchResponse{
		Query:        r.Query,
		Results:      results,
		CurrentPage:  r.Page,
		TotalPages:   pages,
		ResultsTotal: len(ranked),
		PerPageLimit: r.Limit,
	}
	u.searches.set(ctx, key, resp, u.cfg.SearchTTL)
	return &resp, nil
}

// searchProviders asks the chain for the first page of hits big enough to cover the requested page
func (u *VideoUseCase) searchProviders(ctx context.Context, req dto.VideoSearchRequest) ([]model.Video, error) {
	upstreamReq := dto.VideoSearchRequest{Query: req.Query, Page: 1, Limit: req.Page * req.Limit}
	if upstreamReq.Limit > maxPerPage {
		upstreamReq.Limit = maxPerPage
	}
	var errs []error
	for _, p := range u.providers {
		resp, err := p.SearchVideos(ctx, &upstreamReq)
		if err != nil {
			logger.GetLogger().WithField("provider", p.Name()).WithField("error", err).Warn("provider search failed, trying next")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return resp.Files, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

// GetRelatedVideos returns videos similar to fileCode, padded with the most viewed ones
func (u *VideoUseCase) GetRelatedVideos(ctx context.Context, fileCode string, limit int) ([]model.Video, error) {
	target, err := u.GetVideo(ctx, fileCode)
	if err != nil {
		return nil, err
	}
	collection := u.loadedCollection(ctx)
	if len(collection) == 0 {
		feed, err := u.GetVideos(ctx, &dto.VideoListRequest{Page: 1})
		if err != nil {
			return nil, err
		}
		collection = feed.Files
	}
	return rankRelated(*target, collection, clampLimit(limit)), nil
}

func (u *VideoUseCase) GetTrendingVideos(ctx context.Context, limit int) ([]model.Video, error) {
	return u.topOf(ctx, model.CategoryTrending, limit)
}

func (u *VideoUseCase) GetRecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	return u.topOf(ctx, model.CategoryRecent, limit)
}

func (u *VideoUseCase) topOf(ctx context.Context, slug string, limit int) ([]model.Video, error) {
	resp, err := u.GetVideosByCategory(ctx, slug, 1, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// loadedCollection returns the collection without waiting for a load when a stale copy exists.
// A stale copy triggers a background refresh.
func (u *VideoUseCase) loadedCollection(ctx context.Context) []model.Video {
	if videos, ok := u.collection.get(ctx, keyAll); ok {
		return videos
	}
	if videos, ok := u.collection.stale(keyAll); ok {
		go func() {
			if _, err := u.LoadAllVideos(context.WithoutCancel(ctx)); err != nil {
				logger.GetLogger().WithField("error", err).Warn("background collection refresh failed")
			}
		}()
		return videos
	}
	videos, err := u.LoadAllVideos(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("collection unavailable")
		return nil
	}
	return videos
}

// LoadAllVideos loads page 1, then the remaining pages concurrently, deduplicates and writes every tier.
// The load is detached from the caller so a cancelled request does not abort it for the others.
func (u *VideoUseCase) LoadAllVideos(ctx context.Context) ([]model.Video, error) {
	ch := u.loads.DoChan(keyAll, func() (interface{}, error) {
		return u.loadAll(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Video), nil
	}
}

func (u *VideoUseCase) loadAll(ctx context.Context) ([]model.Video, error) {
	started := u.now()
	perPage := u.cfg.PerPage

	first, err := u.loadPage(ctx, 1, perPage)
	if err != nil {
		msg := err.Error()
		u.publish(dto.CacheEvent{Type: dto.EventCollectionFailed, Error: &msg})
		return nil, fmt.Errorf("load page 1: %w", err)
	}
	lastPage := first.TotalPages
	if lastPage < 1 {
		lastPage = 1
	}
	if lastPage > u.cfg.MaxPages {
		lastPage = u.cfg.MaxPages
	}

	pages := make([][]model.Video, lastPage+1)
	pages[1] = first.Files

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.LoadConcurrency)
	for page := 2; page <= lastPage; page++ {
		g.Go(func() error {
			resp, err := u.loadPage(gctx, page, perPage)
			if err != nil {
				// a missing page shrinks the collection, it does not fail it
				logger.GetLogger().WithField("page", page).WithField("error", err).Warn("skipping page in full load")
				return nil
			}
			pages[page] = resp.Files
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Video
	for _, files := range pages {
		all = append(all, files...)
	}
	all = normalize.Dedup(all)

	u.collection.set(ctx, keyAll, all, u.cfg.CollectionTTL)
	for _, v := range all {
		u.videos.mem.Set(keyItemPrefix+v.FileCode, v, u.cfg.VideoTTL)
	}
	if u.store != nil {
		if err := u.store.UpsertVideos(ctx, all, u.cfg.VideoTTL+u.cfg.StaleGrace); err != nil {
			logger.GetLogger().WithField("error", err).Warn("snapshot write failed")
		}
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"videos":   len(all),
		"pages":    lastPage,
		"duration": u.now().Sub(started).String(),
	}).Info("video collection loaded")
	u.publish(dto.CacheEvent{Type: dto.EventCollectionLoaded, Videos: len(all)})
	return all, nil
}

// loadPage reads a feed page from cache or providers. Mock data never enters the collection
func (u *VideoUseCase) loadPage(ctx context.Context, page, perPage int) (*dto.ApiResponse, error) {
	req := dto.VideoListRequest{Page: page, PerPage: perPage}
	key := pageKey(req)
	if resp, ok := u.pages.get(ctx, key); ok {
		return &resp, nil
	}
	resp, err := u.listFromProviders(ctx, req)
	if err != nil {
		return nil, err
	}
	u.pages.set(ctx, key, *resp, u.cfg.PageTTL)
	return resp, nil
}

func (u *VideoUseCase) Reload(ctx context.Context) (int, error) {
	if err := u.InvalidateCache(ctx, ScopeAll); err != nil {
		return 0, err
	}
	videos, err := u.LoadAllVideos(ctx)
	if err != nil {
		return 0, err
	}
	return len(videos), nil
}

type dropper interface {
	dropPrefix(ctx context.Context, prefix string)
	dropLocal(prefix string)
}

func (u *VideoUseCase) dropScope(ctx context.Context, scope string, local bool) error {
	drop := func(d dropper, prefix string) {
		if local {
			d.dropLocal(prefix)
			return
		}
		d.dropPrefix(ctx, prefix)
	}
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case ScopeAll, "":
		drop(u.pages, keyPagePrefix)
		drop(u.videos, keyItemPrefix)
		drop(u.searches, keySearchPrefix)
		drop(u.collection, keyAll)
	case ScopePages:
		drop(u.pages, keyPagePrefix)
	case ScopeVideos:
		drop(u.videos, keyItemPrefix)
		drop(u.collection, keyAll)
	case ScopeSearch:
		drop(u.searches, keySearchPrefix)
	default:
		return fmt.Errorf("%w: %q", repository.ErrUnknownScope, scope)
	}
	return nil
}

func (u *VideoUseCase) InvalidateCache(ctx context.Context, scope string) error {
	if err := u.dropScope(ctx, scope, false); err != nil {
		return err
	}
	logger.GetLogger().WithField("scope", scope).Info("cache invalidated")
	u.publish(dto.CacheEvent{Type: dto.EventCacheInvalidated, Scope: scope})
	return nil
}

// ApplyRemoteInvalidation drops this instance's memory tier after a peer invalidated the shared
// tier. It publishes nothing so peers do not echo each other.
func (u *VideoUseCase) ApplyRemoteInvalidation(ctx context.Context, scope string) error {
	if err := u.dropScope(ctx, scope, true); err != nil {
		return err
	}
	logger.GetLogger().WithField("scope", scope).Info("cache invalidated by peer")
	return nil
}

func (u *VideoUseCase) CacheStats(ctx context.Context) dto.CacheStats {
	stats := dto.CacheStats{
		Pages:       u.pages.mem.Len(),
		Videos:      u.videos.mem.Len(),
		Searches:    u.searches.mem.Len(),
		Hits:        u.hits.Load(),
		Misses:      u.misses.Load(),
		StaleServed: u.staleServed.Load(),
		MockServed:  u.mockServed.Load(),
		SharedCache: u.shared != nil && u.shared.Enabled(),
	}
	if videos, ok := u.collection.stale(keyAll); ok {
		stats.Collection = len(videos)
	}
	if u.store != nil {
		stats.PersistentTier = u.store.Vendor()
	}
	return stats
}

func (u *VideoUseCase) Warmup(ctx context.Context) error {
	if restored := u.restoreSnapshot(ctx); restored > 0 {
		logger.GetLogger().WithField("videos", restored).Info("collection restored from snapshot")
	}
	if _, err := u.LoadAllVideos(ctx); err != nil {
		return fmt.Errorf("warmup load: %w", err)
	}
	return nil
}

// restoreSnapshot seeds the collection from the shared tier or the persistent snapshot.
// Restored data expires after one page TTL so the first full load replaces it soon.
func (u *VideoUseCase) restoreSnapshot(ctx context.Context) int {
	if videos, ok := u.collection.get(ctx, keyAll); ok {
		return len(videos)
	}
	if u.store == nil {
		return 0
	}
	var all []model.Video
	for offset := 0; ; offset += snapshotBatch {
		batch, total, err := u.store.ListVideos(ctx, snapshotBatch, offset)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("snapshot restore failed")
			break
		}
		all = append(all, batch...)
		if len(batch) < snapshotBatch || int64(len(all)) >= total {
			break
		}
	}
	if len(all) == 0 {
		return 0
	}
	all = normalize.Dedup(all)
	u.collection.mem.Set(keyAll, all, u.cfg.PageTTL)
	return len(all)
}

func (u *VideoUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	if u.store == nil {
		return 0, nil
	}
	return u.store.DeleteExpired(ctx, u.now())
}

// Sweep drops memory entries past their stale grace
func (u *VideoUseCase) Sweep() int {
	return u.pages.mem.Sweep() + u.videos.mem.Sweep() + u.searches.mem.Sweep() + u.collection.mem.Sweep()
}

func pageKey(req dto.VideoListRequest) string {
	category := req.Category
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s%s:%d:%d", keyPagePrefix, category, req.Page, req.PerPage)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
