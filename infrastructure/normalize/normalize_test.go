package normalize

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"video-aggregator/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "underscores and extension", in: "my_holiday_video.mp4", want: "My Holiday Video"},
		{name: "dotted release name", in: "Big.Buck.Bunny.[1080p].mkv", want: "Big Buck Bunny"},
		{name: "quality in parentheses", in: "NASA launch (720p HD)", want: "NASA Launch"},
		{name: "keeps decimals", in: "version 2.5 release", want: "Version 2.5 Release"},
		{name: "plus separators", in: "funny+cats+compilation", want: "Funny Cats Compilation"},
		{name: "blank", in: "   ", want: UntitledVideo},
		{name: "only a tag", in: "[HD].mp4", want: UntitledVideo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.in))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	t.Run("strips markup", func(t *testing.T) {
		got := CleanDescription("<p>Hello <b>world</b></p><script>alert(1)</script>", "x", "1:00")
		assert.Equal(t, "Hello world", got)
	})
	t.Run("decodes entities", func(t *testing.T) {
		assert.Equal(t, "Tom & Jerry", CleanDescription("Tom &amp; Jerry", "x", ""))
	})
	t.Run("synthesised when empty", func(t *testing.T) {
		assert.Equal(t, "Watch Cats (1:05) online in HD.", CleanDescription("  ", "Cats", "1:05"))
		assert.Equal(t, "Watch Cats online in HD.", CleanDescription("", "Cats", "0:00"))
	})
	t.Run("truncated", func(t *testing.T) {
		got := CleanDescription(strings.Repeat("word ", 100), "x", "")
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.LessOrEqual(t, utf8.RuneCountInString(got), maxDescriptionRunes)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "alpha beta...", Truncate("alpha beta gamma delta", 18))
	assert.Equal(t, "ålpha bëta...", Truncate("ålpha bëta gämma delta", 18))
	// the only space sits before the midpoint, so the cut stays mid-word
	assert.Equal(t, "ééééé ééé...", Truncate("ééééé ééééé ééééé", 12))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "0:00", FormatDuration(-4))
	assert.Equal(t, "1:05", FormatDuration(65))
	assert.Equal(t, "59:59", FormatDuration(3599))
	assert.Equal(t, "1:01:01", FormatDuration(3661))
}

func TestParseISODuration(t *testing.T) {
	tests := map[string]int64{
		"PT1H2M3S": 3723,
		"PT45S":    45,
		"PT10M":    600,
		"P1DT1S":   86401,
		"pt1m":     60,
	}
	for in, want := range tests {
		got, err := ParseISODuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "PT", "P", "1H", "bogus"} {
		_, err := ParseISODuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, int64(125), ParseSeconds("125"))
	assert.Equal(t, int64(12), ParseSeconds("12.7"))
	assert.Equal(t, int64(125), ParseSeconds("2:05"))
	assert.Equal(t, int64(3600), ParseSeconds("1:00:00"))
	assert.Equal(t, int64(0), ParseSeconds("abc"))
	assert.Equal(t, int64(0), ParseSeconds(""))
}

func TestFormatViews(t *testing.T) {
	assert.Equal(t, "0", FormatViews(-1))
	assert.Equal(t, "999", FormatViews(999))
	assert.Equal(t, "1K", FormatViews(1000))
	assert.Equal(t, "1.2K", FormatViews(1200))
	assert.Equal(t, "3.4M", FormatViews(3_400_000))
	assert.Equal(t, "1B", FormatViews(1_000_000_000))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "", FormatSize(0))
	assert.Equal(t, "1.5 MB", FormatSize(1_500_000))
}

func TestParseTime(t *testing.T) {
	got := ParseTime("2023-05-01 12:30:00")
	assert.Equal(t, time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC), got)

	got = ParseTime("2024-02-10T08:00:00Z")
	assert.Equal(t, time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), got)

	assert.True(t, ParseTime("garbage").IsZero())
	assert.True(t, ParseTime("").IsZero())
}

func TestKeywordsAndTags(t *testing.T) {
	assert.Equal(t, []string{"best", "minecraft"}, Keywords("The Best of Minecraft - Part 2 video"))
	assert.Equal(t, []string{"music", "live"}, NormalizeTags([]string{" Music", "#music", "LIVE", ""}, "ignored"))
	assert.Equal(t, []string{"epic", "guitar", "solo"}, NormalizeTags(nil, "Epic Guitar Solo"))
}

func TestVideo(t *testing.T) {
	v := Video(Raw{
		FileCode:        " abc123 ",
		Title:           "cool_clip.mp4",
		DurationSeconds: 65,
		Views:           1500,
		SizeBytes:       2_000_000,
		ThumbnailURL:    "https://img.example/t.jpg",
		Source:          "filehost",
		CanPlay:         true,
	})

	assert.Equal(t, "abc123", v.FileCode)
	assert.Equal(t, "Cool Clip", v.Title)
	assert.Equal(t, "1:05", v.Duration)
	assert.Equal(t, "1.5K", v.ViewsFormatted)
	assert.Equal(t, "2.0 MB", v.Size)
	assert.Equal(t, "https://img.example/t.jpg", v.SplashURL)
	assert.Equal(t, model.VideoStatusActive, v.Status)
	assert.Equal(t, []string{"cool", "clip"}, v.Tags)
	assert.Equal(t, "Watch Cool Clip (1:05) online in HD.", v.Description)
}

func TestDedup(t *testing.T) {
	in := []model.Video{
		{FileCode: "a", Title: "first"},
		{FileCode: "b"},
		{FileCode: "a", Title: "second"},
		{FileCode: ""},
	}
	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "b", out[1].FileCode)
}
