package usecase

import (
	"math"
	"sort"
	"strings"
	"time"

	"video-aggregator/domain/model"
	"video-aggregator/infrastructure/normalize"
)

// Relevance weights for search
const (
	scoreExactTitle  = 10.0
	scoreTitlePrefix = 5.0
	scoreTitleToken  = 3.0
	scoreTagToken    = 2.0
	scoreDescToken   = 1.0
	// upstream search hits that match no token locally still rank above nothing
	scoreUpstreamHit = 0.5
)

// Similarity weights for related videos
const (
	simSharedTag   = 3.0
	simSharedToken = 2.0
	simSameSource  = 1.0
)

// scoreVideo rates how well v matches the query. Zero means no match.
func scoreVideo(v model.Video, query string, tokens []string) float64 {
	title := strings.ToLower(v.Title)
	q := strings.ToLower(strings.TrimSpace(query))

	var score float64
	if q != "" && strings.Contains(title, q) {
		score += scoreExactTitle
		if strings.HasPrefix(title, q) {
			score += scoreTitlePrefix
		}
	}

	titleTokens := toSet(normalize.Tokenize(v.Title))
	tags := toSet(v.Tags)
	desc := strings.ToLower(v.Description)
	for _, tok := range tokens {
		if _, ok := titleTokens[tok]; ok {
			score += scoreTitleToken
		}
		if _, ok := tags[tok]; ok {
			score += scoreTagToken
		}
		if strings.Contains(desc, tok) {
			score += scoreDescToken
		}
	}
	return score
}

// rankSearch scores the local collection and merges upstream hits. Duplicates keep their best score.
func rankSearch(query string, local, upstream []model.Video) []model.SearchResult {
	tokens := normalize.Keywords(query)
	if len(tokens) == 0 {
		tokens = normalize.Tokenize(query)
	}

	best := make(map[string]int)
	var results []model.SearchResult
	add := func(v model.Video, score float64) {
		if i, ok := best[v.FileCode]; ok {
			if score > results[i].Relevance {
				results[i].Relevance = score
			}
			return
		}
		best[v.FileCode] = len(results)
		results = append(results, model.SearchResult{Video: v, Relevance: score})
	}

	for _, v := range local {
		if s := scoreVideo(v, query, tokens); s > 0 {
			add(v, s)
		}
	}
	for _, v := range upstream {
		if v.FileCode == "" {
			continue
		}
		add(v, math.Max(scoreVideo(v, query, tokens), scoreUpstreamHit))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Views > results[j].Views
	})
	return results
}

func similarity(a, b model.Video) float64 {
	var score float64
	tags := toSet(a.Tags)
	for _, t := range b.Tags {
		if _, ok := tags[t]; ok {
			score += simSharedTag
		}
	}
	tokens := toSet(normalize.Keywords(a.Title))
	for _, t := range normalize.Keywords(b.Title) {
		if _, ok := tokens[t]; ok {
			score += simSharedToken
		}
	}
	if score > 0 && a.Source != "" && a.Source == b.Source {
		score += simSameSource
	}
	return score
}

// rankRelated orders the collection by similarity to target and pads with the most viewed videos
func rankRelated(target model.Video, collection []model.Video, limit int) []model.Video {
	type scored struct {
		video model.Video
		score float64
	}
	candidates := make([]scored, 0, len(collection))
	for _, v := range collection {
		if v.FileCode == target.FileCode {
			continue
		}
		candidates = append(candidates, scored{video: v, score: similarity(target, v)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].video.Views > candidates[j].video.Views
	})

	out := make([]model.Video, 0, limit)
	for _, c := range candidates {
		if len(out) == limit || c.score == 0 {
			break
		}
		out = append(out, c.video)
	}
	if len(out) < limit {
		// padding: candidates with score 0 are already in views order
		for _, c := range candidates {
			if len(out) == limit {
				break
			}
			if c.score == 0 {
				out = append(out, c.video)
			}
		}
	}
	return out
}

// rankCategory filters the collection for a category
func rankCategory(cat model.Category, collection []model.Video, now time.Time) []model.Video {
	out := make([]model.Video, 0, len(collection))
	switch cat.Slug {
	case model.CategoryPopular:
		out = append(out, collection...)
		sortByViews(out)
	case model.CategoryRecent:
		out = append(out, collection...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	case model.CategoryTrending:
		out = append(out, collection...)
		sort.SliceStable(out, func(i, j int) bool { return trendScore(out[i], now) > trendScore(out[j], now) })
	default:
		scores := make(map[string]float64)
		for _, v := range collection {
			titleTokens := toSet(normalize.Tokenize(v.Title))
			tags := toSet(v.Tags)
			var s float64
			for _, k := range cat.Keywords {
				if _, ok := titleTokens[k]; ok {
					s += 2
				}
				if _, ok := tags[k]; ok {
					s++
				}
			}
			if s > 0 {
				scores[v.FileCode] = s
				out = append(out, v)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if scores[out[i].FileCode] != scores[out[j].FileCode] {
				return scores[out[i].FileCode] > scores[out[j].FileCode]
			}
			return out[i].Views > out[j].Views
		})
	}
	return out
}

// trendScore decays views by age in hours. Unknown upload times count as one week old
func trendScore(v model.Video, now time.Time) float64 {
	age := 7 * 24.0
	if !v.UploadedAt.IsZero() {
		age = math.Max(now.Sub(v.UploadedAt).Hours(), 0)
	}
	return float64(v.Views) / math.Pow(age+2, 1.5)
}

func sortByViews(videos []model.Video) {
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].Views > videos[j].Views })
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

// paginate returns the 1-based page of items and the page count
func paginate[T any](items []T, page, perPage int) ([]T, int) {
	if perPage <= 0 {
		return items, 1
	}
	pages := (len(items) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(items) || start < 0 {
		return []T{}, pages
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pages
}
