package placeholder

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Format tokens accepted via the format= option
const (
	FormatNumber  = "number"
	FormatCompact = "compact"
	FormatBadge   = "badge"
	FormatFire    = "fire"
)

// applyFormat renders the raw field value for display. The field resolver
// keeps raw values; formatting is a presentation concern applied here,
// after resolution succeeds. Non-numeric values pass through number and
// compact unchanged. Unknown format tokens leave the value as-is.
func applyFormat(value, format string) string {
	switch format {
	case FormatNumber:
		n, err := strconv.Atoi(value)
		if err != nil {
			return value
		}
		return groupThousands(n)
	case FormatCompact:
		n, err := strconv.Atoi(value)
		if err != nil {
			return value
		}
		return compactNumber(n)
	case FormatBadge:
		return fmt.Sprintf("![%s](https://img.shields.io/badge/%s-blue)",
			value, url.PathEscape(strings.ReplaceAll(value, "-", "--")))
	case FormatFire:
		return value + " \U0001F525"
	}
	return value
}

// groupThousands renders 1234567 as "1,234,567"
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}

// compactNumber renders 1234 as "1.2k" and 2500000 as "2.5M"
func compactNumber(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1_000_000))
	case abs >= 1_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1_000))
	}
	return strconv.Itoa(n)
}

// trimZero turns "3.0k" into "3k"
func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}
