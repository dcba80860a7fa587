package normalize

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "has": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "with": {}, "video": {}, "vs": {},
	"part": {}, "new": {}, "my": {}, "your": {}, "how": {}, "what": {},
}

// Tokenize lower-cases s and splits it into letter/digit words
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Keywords returns the distinct tokens of s that carry meaning for matching
func Keywords(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(s) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// NormalizeTags lower-cases, trims and dedups upstream tags. Without any, tags are taken from the title
func NormalizeTags(tags []string, title string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		out = Keywords(title)
		if len(out) > 8 {
			out = out[:8]
		}
	}
	return out
}
