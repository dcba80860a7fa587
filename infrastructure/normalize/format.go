package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour up
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseISODuration converts an ISO-8601 duration such as PT1H2M3S into seconds
func ParseISODuration(s string) (int64, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	m := isoDuration.FindStringSubmatch(u)
	if m == nil || u == "P" || u == "PT" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	var total float64
	units := []float64{86400, 3600, 60, 1}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
		}
		total += v * unit
	}
	return int64(total), nil
}

// ParseSeconds reads a duration that upstreams send as "125", "125.4" or "2:05"
func ParseSeconds(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ":") {
		var total int64
		for _, part := range strings.Split(s, ":") {
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return 0
			}
			total = total*60 + n
		}
		return total
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}

// FormatViews renders a view count as 999, 1.2K, 3.4M or 1.1B
func FormatViews(views int64) string {
	switch {
	case views < 0:
		return "0"
	case views < 1_000:
		return strconv.FormatInt(views, 10)
	case views < 1_000_000:
		return trimZero(float64(views)/1_000) + "K"
	case views < 1_000_000_000:
		return trimZero(float64(views)/1_000_000) + "M"
	default:
		return trimZero(float64(views)/1_000_000_000) + "B"
	}
}

func trimZero(f float64) string {
	s := strconv.FormatFloat(f, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// FormatSize renders a byte count, empty when unknown
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(bytes))
}

// ParseTime accepts the many timestamp layouts upstreams use. Zero time when unparseable
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
