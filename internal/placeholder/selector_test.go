package placeholder

import (
	"testing"
	"time"

	"github.com/impactboard/impactboard-go/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func userList() []models.AggregatedStats {
	return []models.AggregatedStats{
		{UserID: 1, Login: "alice", WeightedScore: 90, WindowStart: day(1), WindowEnd: day(20)},
		{UserID: 2, Login: "bob", WeightedScore: 120, WindowStart: day(5), WindowEnd: day(28)},
		{UserID: 3, Login: "carol", WeightedScore: 120, WindowStart: day(10), WindowEnd: day(25)},
		{UserID: 4, Login: "dave", WeightedScore: 40, WindowStart: day(15), WindowEnd: day(27)},
	}
}

func mustParseSelector(t *testing.T, raw string) parsedSelector {
	t.Helper()
	sel, ok := parseSelector(raw)
	if !ok {
		t.Fatalf("parseSelector(%q) failed", raw)
	}
	return sel
}

func TestSelectUser_TopAndRank(t *testing.T) {
	tests := []struct {
		name      string
		selector  string
		wantLogin string
		wantFound bool
	}{
		{"top 1 is highest score", "TOP(1)", "bob", true},
		{"stable tie break keeps input order", "TOP(2)", "carol", true},
		{"top 3", "TOP(3)", "alice", true},
		{"rank aliases top", "RANK(1)", "bob", true},
		{"zero index", "TOP(0)", "", false},
		{"negative index", "TOP(-1)", "", false},
		{"past end", "TOP(5)", "", false},
		{"non-numeric argument", "TOP(x)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := SelectUser(userList(), mustParseSelector(t, tt.selector))
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got.Login != tt.wantLogin {
				t.Errorf("login = %q, want %q", got.Login, tt.wantLogin)
			}
		})
	}
}

func TestSelectUser_Username(t *testing.T) {
	got, found := SelectUser(userList(), mustParseSelector(t, "USERNAME(carol)"))
	if !found || got.Login != "carol" {
		t.Fatalf("USERNAME(carol) = %q, found=%v", got.Login, found)
	}

	// Case-sensitive exact match.
	if _, found := SelectUser(userList(), mustParseSelector(t, "USERNAME(Carol)")); found {
		t.Error("USERNAME(Carol) should not match carol")
	}
}

func TestSelectUser_NewAndActive(t *testing.T) {
	// NEW sorts by window start descending: dave joined most recently.
	got, found := SelectUser(userList(), mustParseSelector(t, "NEW(1)"))
	if !found || got.Login != "dave" {
		t.Fatalf("NEW(1) = %q, found=%v, want dave", got.Login, found)
	}

	// ACTIVE sorts by window end descending: bob was last active.
	got, found = SelectUser(userList(), mustParseSelector(t, "ACTIVE(1)"))
	if !found || got.Login != "bob" {
		t.Fatalf("ACTIVE(1) = %q, found=%v, want bob", got.Login, found)
	}
}

func TestSelectUser_UnknownToken(t *testing.T) {
	if _, found := SelectUser(userList(), mustParseSelector(t, "BEST(1)")); found {
		t.Error("unknown selector token should not resolve")
	}
}

func TestSelectUser_DoesNotMutateInput(t *testing.T) {
	list := userList()
	SelectUser(list, mustParseSelector(t, "TOP(1)"))
	if list[0].Login != "alice" {
		t.Errorf("input order changed: first entry is %q, want alice", list[0].Login)
	}
}

func TestSelectRepo(t *testing.T) {
	repos := []models.RepoAggregatedStats{
		{RepoID: 1, Name: "api", Commits: 30},
		{RepoID: 2, Name: "web", Commits: 75},
		{RepoID: 3, Name: "docs", Commits: 10},
	}

	got, found := SelectRepo(repos, mustParseSelector(t, "TOP(1)"))
	if !found || got.Name != "web" {
		t.Fatalf("TOP(1) = %q, found=%v, want web", got.Name, found)
	}

	got, found = SelectRepo(repos, mustParseSelector(t, "NAME(docs)"))
	if !found || got.Name != "docs" {
		t.Fatalf("NAME(docs) = %q, found=%v", got.Name, found)
	}

	if _, found := SelectRepo(repos, mustParseSelector(t, "TOP(4)")); found {
		t.Error("TOP(4) on a 3-repo list should not resolve")
	}
	if _, found := SelectRepo(repos, mustParseSelector(t, "NAME(missing)")); found {
		t.Error("NAME(missing) should not resolve")
	}
}

func TestParseSelector(t *testing.T) {
	sel, ok := parseSelector("TOP(3)")
	if !ok || sel.token != "TOP" || !sel.hasN || sel.n != 3 {
		t.Errorf("parseSelector(TOP(3)) = %+v, ok=%v", sel, ok)
	}

	sel, ok = parseSelector("USERNAME(octo-cat)")
	if !ok || sel.token != "USERNAME" || sel.arg != "octo-cat" || sel.hasN {
		t.Errorf("parseSelector(USERNAME(octo-cat)) = %+v, ok=%v", sel, ok)
	}

	sel, ok = parseSelector("active_users")
	if !ok || sel.token != "active_users" || sel.hasArg {
		t.Errorf("parseSelector(active_users) = %+v, ok=%v", sel, ok)
	}
}
