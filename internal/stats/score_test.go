package stats

import (
	"testing"

	"github.com/impactboard/impactboard-go/internal/models"
)

func TestEventScore(t *testing.T) {
	tests := []struct {
		name         string
		event        models.ContributionEvent
		wantRaw      float64
		wantWeighted float64
	}{
		{
			"plain commit",
			models.ContributionEvent{Kind: models.EventCommit, LinesAdded: 100},
			4.0, 4.0,
		},
		{
			"merged pr",
			models.ContributionEvent{Kind: models.EventPRMerged},
			8.0, 8.0,
		},
		{
			"issue opened",
			models.ContributionEvent{Kind: models.EventIssueOpened},
			1.0, 1.0,
		},
		{
			"issue closed",
			models.ContributionEvent{Kind: models.EventIssueClosed},
			2.0, 2.0,
		},
		{
			"giant commit is capped in weighted only",
			models.ContributionEvent{Kind: models.EventCommit, LinesAdded: 50000},
			3.0 + 500.0, 3.0 + 20.0,
		},
		{
			"unknown kind scores nothing",
			models.ContributionEvent{Kind: models.EventKind("star")},
			0, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, weighted := eventScore(tt.event)
			if raw != tt.wantRaw {
				t.Errorf("raw = %v, want %v", raw, tt.wantRaw)
			}
			if weighted != tt.wantWeighted {
				t.Errorf("weighted = %v, want %v", weighted, tt.wantWeighted)
			}
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		name  string
		rank  int
		total int
		want  models.RankTier
	}{
		{"first of 100", 1, 100, models.RankTierDiamond},
		{"top 15 percent", 10, 100, models.RankTierPlatinum},
		{"top 35 percent", 30, 100, models.RankTierGold},
		{"middle", 50, 100, models.RankTierSilver},
		{"bottom", 90, 100, models.RankTierBronze},
		{"sole contributor", 1, 1, models.RankTierBronze},
		{"first of three", 1, 3, models.RankTierGold},
		{"invalid rank", 0, 10, models.RankTierBronze},
		{"empty org", 1, 0, models.RankTierBronze},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tierFor(tt.rank, tt.total); got != tt.want {
				t.Errorf("tierFor(%d, %d) = %v, want %v", tt.rank, tt.total, got, tt.want)
			}
		})
	}
}
