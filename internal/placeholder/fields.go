package placeholder

import (
	"math"
	"strconv"

	"github.com/impactboard/impactboard-go/internal/models"
)

// resolveUserField maps a field name to its raw string value for one
// contributor. Unknown fields yield "", never an error; the orchestrator
// turns "" into the declared fallback.
func resolveUserField(s models.AggregatedStats, field string) string {
	switch field {
	case "username":
		return "@" + s.Login
	case "commits":
		return strconv.Itoa(s.Commits)
	case "prs":
		return strconv.Itoa(s.PRsMerged)
	case "issues_closed":
		return strconv.Itoa(s.IssuesClosed)
	case "issues_open":
		return strconv.Itoa(s.IssuesOpened)
	case "loc_added":
		return strconv.Itoa(s.LinesAdded)
	case "loc_removed":
		return strconv.Itoa(s.LinesRemoved)
	case "streak":
		return strconv.Itoa(s.CurrentStreak)
	case "impact":
		return strconv.Itoa(int(math.Round(s.WeightedScore)))
	case "rank":
		return string(s.RankTier)
	case "repos":
		return strconv.Itoa(s.RepoCount)
	case "last_active":
		return s.WindowEnd.Format("2006-01-02")
	}
	return ""
}

func resolveRepoField(r models.RepoAggregatedStats, field string) string {
	switch field {
	case "name":
		return r.Name
	case "commits":
		return strconv.Itoa(r.Commits)
	case "prs":
		return strconv.Itoa(r.PRs)
	case "issues":
		return strconv.Itoa(r.Issues)
	case "loc_added":
		return strconv.Itoa(r.LinesAdded)
	case "contributors":
		return strconv.Itoa(r.Contributors)
	case "status":
		return string(r.Status)
	}
	return ""
}

// resolveOrgField reads directly off the summary record. ORG placeholders
// have no selector; the selector slot carries the field name.
func resolveOrgField(sum models.OrgStatsSummary, field string) string {
	switch field {
	case "active_users":
		return strconv.Itoa(sum.ActiveUsers)
	case "total_commits":
		return strconv.Itoa(sum.TotalCommits)
	case "total_prs":
		return strconv.Itoa(sum.TotalPRs)
	case "total_loc_added":
		return strconv.Itoa(sum.TotalLinesAdded)
	case "total_repos":
		return strconv.Itoa(sum.TotalRepos)
	case "health_score":
		return strconv.Itoa(int(math.Round(sum.HealthScore)))
	}
	return ""
}
