package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const UntitledVideo = "Untitled Video"

var (
	videoExtension = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|m4v|mpg|mpeg|3gp|ts)$`)
	releaseTag     = regexp.MustCompile(`(?i)\[[^\]]*\]|\{[^}]*\}|\([^)]*\b(?:\d{3,4}p|hd|4k|x26[45]|hevc|web-?dl|bluray)\b[^)]*\)`)
	separators     = strings.NewReplacer("_", " ", "+", " ")
	whitespace     = regexp.MustCompile(`\s+`)
)

// CleanTitle turns an upload file name into a display title
func CleanTitle(raw string) string {
	t := strings.TrimSpace(raw)
	t = videoExtension.ReplaceAllString(t, "")
	t = releaseTag.ReplaceAllString(t, " ")
	t = separators.Replace(t)
	t = replaceDots(t)
	t = whitespace.ReplaceAllString(t, " ")
	t = strings.Trim(t, " -|")
	if t == "" {
		return UntitledVideo
	}

	// Caser is stateful, one per call
	caser := cases.Title(language.English)
	words := strings.Split(t, " ")
	for i, w := range words {
		// acronyms and mixed-case words are kept as uploaded
		if w == strings.ToLower(w) {
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}

// replaceDots swaps dots used as word separators for spaces, keeping decimals such as 2.5
func replaceDots(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c != '.' {
			continue
		}
		if i > 0 && i < len(b)-1 && isDigit(b[i-1]) && isDigit(b[i+1]) {
			continue
		}
		b[i] = ' '
	}
	return string(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
