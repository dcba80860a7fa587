package model

// Category is a browsable slice of the catalogue
type Category struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

const (
	CategoryTrending = "trending"
	CategoryRecent   = "recent"
	CategoryPopular  = "popular"
)

var categories = []Category{
	{Slug: CategoryTrending, Name: "Trending"},
	{Slug: CategoryRecent, Name: "Recently Added"},
	{Slug: CategoryPopular, Name: "Popular"},
	{Slug: "music", Name: "Music", Keywords: []string{"music", "song", "album", "live", "concert", "remix", "official"}},
	{Slug: "gaming", Name: "Gaming", Keywords: []string{"game", "gaming", "gameplay", "walkthrough", "minecraft", "fortnite", "speedrun"}},
	{Slug: "sports", Name: "Sports", Keywords: []string{"sport", "football", "soccer", "basketball", "highlights", "match", "goal"}},
	{Slug: "news", Name: "News", Keywords: []string{"news", "report", "breaking", "update", "interview"}},
	{Slug: "education", Name: "Education", Keywords: []string{"tutorial", "lesson", "course", "learn", "guide", "explained", "lecture"}},
	{Slug: "comedy", Name: "Comedy", Keywords: []string{"funny", "comedy", "prank", "meme", "standup", "sketch"}},
	{Slug: "tech", Name: "Technology", Keywords: []string{"tech", "review", "unboxing", "phone", "laptop", "programming", "coding"}},
}

// Categories returns a copy of the category catalogue
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// FindCategory looks a category up by slug
func FindCategory(slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}
