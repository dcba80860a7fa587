package usecase

import (
	"testing"
	"time"

	"video-aggregator/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestScoreVideo(t *testing.T) {
	v := model.Video{Title: "Cats Playing Piano", Tags: []string{"piano"}, Description: "two cats"}

	assert.Zero(t, scoreVideo(v, "submarine", []string{"submarine"}))
	exact := scoreVideo(v, "cats playing", []string{"cats", "playing"})
	token := scoreVideo(v, "piano cats", []string{"piano", "cats"})
	assert.Greater(t, exact, token)
	assert.Greater(t, token, 0.0)
}

func TestRankSearchKeepsBestScore(t *testing.T) {
	local := []model.Video{{FileCode: "a", Title: "Rain Sounds"}}
	upstream := []model.Video{{FileCode: "a", Title: "Rain Sounds"}, {FileCode: "b", Title: "Thunder"}, {FileCode: ""}}

	results := rankSearch("rain", local, upstream)
	assert.Len(t, results, 2)
	assert.Equal(t, "a", results[0].FileCode)
	assert.Equal(t, scoreUpstreamHit, results[1].Relevance)
}

func TestRankRelatedExcludesTarget(t *testing.T) {
	target := model.Video{FileCode: "t", Title: "Jazz Piano"}
	collection := []model.Video{target, {FileCode: "x", Title: "Rock", Views: 9}, {FileCode: "y", Title: "Jazz Night", Views: 1}}

	related := rankRelated(target, collection, 5)
	assert.Len(t, related, 2)
	assert.Equal(t, "y", related[0].FileCode)
	assert.Equal(t, "x", related[1].FileCode)
}

func TestTrendScoreFavoursRecentViews(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := model.Video{Views: 1000, UploadedAt: now.Add(-time.Hour)}
	old := model.Video{Views: 5000, UploadedAt: now.Add(-90 * 24 * time.Hour)}
	assert.Greater(t, trendScore(fresh, now), trendScore(old, now))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, pages := paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, got)
	assert.Equal(t, 3, pages)

	got, _ = paginate(items, 3, 2)
	assert.Equal(t, []int{5}, got)

	got, _ = paginate(items, 9, 2)
	assert.Empty(t, got)
}
