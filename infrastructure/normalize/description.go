package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	xhtml "golang.org/x/net/html"
)

const maxDescriptionRunes = 300

// CleanDescription strips markup from an upstream description and truncates it.
// An empty description is synthesised from the title and duration.
func CleanDescription(raw, title, duration string) string {
	d := whitespace.ReplaceAllString(StripHTML(raw), " ")
	d = strings.TrimSpace(d)
	if d == "" {
		return GenerateDescription(title, duration)
	}
	return Truncate(d, maxDescriptionRunes)
}

// GenerateDescription builds the fallback description for a video without one
func GenerateDescription(title, duration string) string {
	if title == "" {
		title = UntitledVideo
	}
	if duration == "" || duration == "0:00" {
		return fmt.Sprintf("Watch %s online in HD.", title)
	}
	return fmt.Sprintf("Watch %s (%s) online in HD.", title, duration)
}

// StripHTML returns the text content of an HTML fragment with entities decoded
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var sb strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return sb.String()
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				sb.WriteByte(' ')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case xhtml.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// Truncate shortens s to at most n runes, ending on a word boundary with "..."
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	runes := []rune(s)[:n-3]
	// break on the last space when it keeps at least half of the text
	for i := len(runes) - 1; i > n/2; i-- {
		if runes[i] == ' ' {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimRight(string(runes), " ,.;:-") + "..."
}
