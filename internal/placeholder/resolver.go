// Package placeholder implements the README placeholder engine: parsing
// {{IMPACTBOARD:...}} syntax, enforcing the org policy, and substituting
// privacy-filtered values. Resolution is deliberately silent about
// failures: a placeholder that cannot be resolved safely degrades to its
// declared fallback, never to an error message or a suppression marker.
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/policy"
	"github.com/impactboard/impactboard-go/internal/privacy"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// StatsProvider is the read-only statistics surface the engine consumes.
// Implemented by storage.Store.
type StatsProvider interface {
	GetOrgStats(ctx context.Context, orgID int64, window models.Window) ([]models.AggregatedStats, error)
	GetRepoStats(ctx context.Context, orgID int64, window models.Window) ([]models.RepoAggregatedStats, error)
	GetOrgSummary(ctx context.Context, orgID int64, window models.Window) (*models.OrgStatsSummary, error)
}

// PrivacyProvider returns the authoritative opt-out set for an org
type PrivacyProvider interface {
	GetOptedOutUserIDs(ctx context.Context, orgID int64) ([]int64, error)
}

// Resolver is the resolution orchestrator. It holds no per-pass state, so
// one Resolver may serve concurrent passes for different orgs.
type Resolver struct {
	stats   StatsProvider
	privacy PrivacyProvider
	logger  *logrus.Logger
}

// NewResolver creates a Resolver backed by the given providers
func NewResolver(stats StatsProvider, priv PrivacyProvider, logger *logrus.Logger) *Resolver {
	return &Resolver{
		stats:   stats,
		privacy: priv,
		logger:  logger,
	}
}

// pass carries the per-resolution snapshot caches. Each (entity, window)
// statistics set is fetched at most once per pass, so every placeholder in
// one document sees one consistent, already privacy-filtered snapshot.
type pass struct {
	orgID  int64
	pol    *policy.Policy
	assets AssetContext

	optOut       privacy.OptOutSet
	optOutLoaded bool

	userStats map[models.Window][]models.AggregatedStats
	repoStats map[models.Window][]models.RepoAggregatedStats
	summaries map[models.Window]*models.OrgStatsSummary
}

// Resolve parses text and substitutes every in-scope placeholder with its
// resolved value or fallback. Non-placeholder content is preserved
// exactly. Provider failures propagate as errors since they indicate a
// broken collaborator, not bad document content; every per-placeholder
// condition degrades silently to the fallback.
func (r *Resolver) Resolve(ctx context.Context, orgID int64, orgLogin, text string, pol *policy.Policy, assets AssetContext) (string, error) {
	// Rule 1: only full mode resolves placeholders at all.
	if pol.Mode != policy.ModeFull {
		return text, nil
	}

	occs := Parse(text)
	if len(occs) == 0 {
		return text, nil
	}

	p := &pass{
		orgID:     orgID,
		pol:       pol,
		assets:    assets,
		userStats: map[models.Window][]models.AggregatedStats{},
		repoStats: map[models.Window][]models.RepoAggregatedStats{},
		summaries: map[models.Window]*models.OrgStatsSummary{},
	}

	result := text
	for i, occ := range occs {
		// Rule 4: occurrences past the cap stay as literal text, a
		// distinct outcome from "resolution failed".
		if i >= pol.MaxPlaceholders {
			break
		}
		value, ok, err := r.resolveOccurrence(ctx, p, occ)
		if err != nil {
			return "", err
		}
		if !ok {
			value = occ.Fallback()
		}
		result = strings.Replace(result, occ.Raw, value, 1)
	}

	r.logger.WithFields(logrus.Fields{
		"org":          orgLogin,
		"placeholders": len(occs),
	}).Debug("resolution pass complete")

	return result, nil
}

// resolveOccurrence produces the substitution value for one placeholder.
// ok=false means "use fallback"; err means the pass must abort.
func (r *Resolver) resolveOccurrence(ctx context.Context, p *pass, occ Occurrence) (string, bool, error) {
	if !entityAllowed(occ, p.pol) {
		return "", false, nil
	}

	window := occ.Window(p.pol)

	switch occ.Entity {
	case policy.EntitySVG:
		value, ok := resolveAsset(p.assets, occ.Selector)
		return value, ok, nil

	case policy.EntityOrg:
		if !fieldAllowed(occ, p.pol) {
			return "", false, nil
		}
		sum, err := p.orgSummary(ctx, r.stats, window)
		if err != nil {
			return "", false, err
		}
		if sum == nil {
			return "", false, nil
		}
		value := resolveOrgField(*sum, occ.Selector)
		if value == "" {
			return "", false, nil
		}
		return applyFormat(value, occ.Format()), true, nil

	case policy.EntityUser:
		sel, _ := parseSelector(occ.Selector)
		if !selectorAllowed(occ, sel, p.pol) {
			return "", false, nil
		}
		if !fieldAllowed(occ, p.pol) {
			return "", false, nil
		}
		list, err := p.filteredUserStats(ctx, r.stats, r.privacy, window)
		if err != nil {
			return "", false, err
		}
		user, found := SelectUser(list, sel)
		if !found {
			return "", false, nil
		}
		if fieldHidden(user.Login, occ.Field, p.pol) {
			return "", false, nil
		}
		value := resolveUserField(user, occ.Field)
		if value == "" {
			return "", false, nil
		}
		return applyFormat(value, occ.Format()), true, nil

	case policy.EntityRepo:
		sel, _ := parseSelector(occ.Selector)
		if !fieldAllowed(occ, p.pol) {
			return "", false, nil
		}
		list, err := p.repoStatsFor(ctx, r.stats, window)
		if err != nil {
			return "", false, err
		}
		repo, found := SelectRepo(list, sel)
		if !found {
			return "", false, nil
		}
		value := resolveRepoField(repo, occ.Field)
		if value == "" {
			return "", false, nil
		}
		return applyFormat(value, occ.Format()), true, nil
	}

	return "", false, nil
}

// filteredUserStats fetches and privacy-filters the user snapshot for a
// window, at most once per pass. Filtering happens here, before any
// selector sees the list, so ranks are computed on public entries only.
func (p *pass) filteredUserStats(ctx context.Context, stats StatsProvider, priv PrivacyProvider, window models.Window) ([]models.AggregatedStats, error) {
	if cached, ok := p.userStats[window]; ok {
		return cached, nil
	}
	if !p.optOutLoaded {
		ids, err := priv.GetOptedOutUserIDs(ctx, p.orgID)
		if err != nil {
			return nil, fmt.Errorf("fetch opt-out set: %w", err)
		}
		p.optOut = privacy.NewOptOutSet(ids)
		p.optOutLoaded = true
	}
	list, err := stats.GetOrgStats(ctx, p.orgID, window)
	if err != nil {
		return nil, fmt.Errorf("fetch org stats (%s): %w", window, err)
	}
	filtered := privacy.Filter(list, p.optOut)
	p.userStats[window] = filtered
	return filtered, nil
}

func (p *pass) repoStatsFor(ctx context.Context, stats StatsProvider, window models.Window) ([]models.RepoAggregatedStats, error) {
	if cached, ok := p.repoStats[window]; ok {
		return cached, nil
	}
	list, err := stats.GetRepoStats(ctx, p.orgID, window)
	if err != nil {
		return nil, fmt.Errorf("fetch repo stats (%s): %w", window, err)
	}
	p.repoStats[window] = list
	return list, nil
}

func (p *pass) orgSummary(ctx context.Context, stats StatsProvider, window models.Window) (*models.OrgStatsSummary, error) {
	if cached, ok := p.summaries[window]; ok {
		return cached, nil
	}
	sum, err := stats.GetOrgSummary(ctx, p.orgID, window)
	if errors.Is(err, storage.ErrNotFound) {
		// No summary for this window is data absence, not a provider
		// failure. Cache the miss so the pass stays single-fetch.
		p.summaries[window] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch org summary (%s): %w", window, err)
	}
	p.summaries[window] = sum
	return sum, nil
}
