package output

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Count formats n with thousands separators.
func Count(n uint64) string {
	return humanize.Comma(int64(n))
}

// Date formats a unix timestamp as a UTC date.
func Date(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

// Ago formats a unix timestamp relative to now, e.g. "3 days ago".
func Ago(unix int64) string {
	return humanize.Time(time.Unix(unix, 0))
}

// Ratio formats a ratio as a percentage.
func Ratio(r float64) string {
	if math.IsNaN(r) {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", r*100)
}

// Float formats a metric with two decimals, "-" when undefined.
func Float(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", f)
}
