// Package badge renders org statistics as SVG assets: a leaderboard card
// and an activity heatmap, each in a light and a dark theme. Rendering is
// pure string building over an immutable snapshot, so identical inputs
// produce byte-identical SVGs.
package badge

import (
	"fmt"
	"strings"
	"time"

	"github.com/impactboard/impactboard-go/internal/models"
)

// Theme holds the palette for one SVG variant
type Theme struct {
	Name       string
	Background string
	Text       string
	Muted      string
	Bar        string
	CellEmpty  string
	CellScale  [4]string
}

// LightTheme is the default palette
var LightTheme = Theme{
	Name:       "light",
	Background: "#ffffff",
	Text:       "#24292f",
	Muted:      "#57606a",
	Bar:        "#2da44e",
	CellEmpty:  "#ebedf0",
	CellScale:  [4]string{"#9be9a8", "#40c463", "#30a14e", "#216e39"},
}

// DarkTheme mirrors GitHub's dark palette
var DarkTheme = Theme{
	Name:       "dark",
	Background: "#0d1117",
	Text:       "#c9d1d9",
	Muted:      "#8b949e",
	Bar:        "#3fb950",
	CellEmpty:  "#161b22",
	CellScale:  [4]string{"#0e4429", "#006d32", "#26a641", "#39d353"},
}

const (
	leaderboardRows  = 5
	leaderboardWidth = 480
	rowHeight        = 36
	heatmapWeeks     = 13
	cellSize         = 12
	cellGap          = 3
)

// Leaderboard renders the top contributors as a bar-chart card. The
// input list must already be privacy-filtered and score-ordered.
func Leaderboard(orgLogin string, users []models.AggregatedStats, theme Theme) string {
	if len(users) > leaderboardRows {
		users = users[:leaderboardRows]
	}
	height := 56 + len(users)*rowHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		leaderboardWidth, height, leaderboardWidth, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" rx="6" fill="%s"/>`, leaderboardWidth, height, theme.Background)
	fmt.Fprintf(&b, `<text x="20" y="32" font-family="sans-serif" font-size="16" font-weight="bold" fill="%s">%s — top contributors</text>`,
		theme.Text, escape(orgLogin))

	maxScore := 1.0
	for _, u := range users {
		if u.WeightedScore > maxScore {
			maxScore = u.WeightedScore
		}
	}

	for i, u := range users {
		y := 56 + i*rowHeight
		barWidth := int(260 * (u.WeightedScore / maxScore))
		if barWidth < 4 {
			barWidth = 4
		}
		fmt.Fprintf(&b, `<text x="20" y="%d" font-family="sans-serif" font-size="13" fill="%s">%d. @%s</text>`,
			y+16, theme.Text, i+1, escape(u.Login))
		fmt.Fprintf(&b, `<rect x="160" y="%d" width="%d" height="14" rx="3" fill="%s"/>`,
			y+4, barWidth, theme.Bar)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="12" fill="%s">%d</text>`,
			166+barWidth, y+16, theme.Muted, int(u.WeightedScore))
	}

	b.WriteString(`</svg>`)
	return b.String()
}

// Heatmap renders per-day activity counts for the trailing weeks as the
// familiar contribution grid. days maps UTC day to event count.
func Heatmap(orgLogin string, days map[time.Time]int, now time.Time, theme Theme) string {
	width := heatmapWeeks*(cellSize+cellGap) + 40
	height := 7*(cellSize+cellGap) + 56

	maxCount := 1
	for _, c := range days {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" rx="6" fill="%s"/>`, width, height, theme.Background)
	fmt.Fprintf(&b, `<text x="20" y="28" font-family="sans-serif" font-size="14" font-weight="bold" fill="%s">%s — activity</text>`,
		theme.Text, escape(orgLogin))

	// Grid ends on today's column; weeks run oldest to newest.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(heatmapWeeks*7 - 1))

	for i := 0; i < heatmapWeeks*7; i++ {
		day := start.AddDate(0, 0, i)
		if day.After(today) {
			break
		}
		week := i / 7
		weekday := i % 7
		x := 20 + week*(cellSize+cellGap)
		y := 40 + weekday*(cellSize+cellGap)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="2" fill="%s"><title>%s</title></rect>`,
			x, y, cellSize, cellSize, cellColor(days[day], maxCount, theme), day.Format("2006-01-02"))
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func cellColor(count, maxCount int, theme Theme) string {
	if count <= 0 {
		return theme.CellEmpty
	}
	idx := (count*4 - 1) / maxCount
	if idx > 3 {
		idx = 3
	}
	return theme.CellScale[idx]
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
