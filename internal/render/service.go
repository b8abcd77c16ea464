// Package render drives one full rendering pass for an installed org:
// load the policy file from the repo, regenerate SVG assets, resolve the
// README through the placeholder engine, and commit the results back.
package render

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/impactboard/impactboard-go/internal/badge"
	"github.com/impactboard/impactboard-go/internal/cache"
	"github.com/impactboard/impactboard-go/internal/config"
	"github.com/impactboard/impactboard-go/internal/github"
	"github.com/impactboard/impactboard-go/internal/placeholder"
	"github.com/impactboard/impactboard-go/internal/policy"
	"github.com/impactboard/impactboard-go/internal/privacy"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// RepoAPI is the slice of the GitHub client the pipeline uses
type RepoAPI interface {
	FetchFile(ctx context.Context, installationID int64, owner, repo, filePath string) (*github.FileContent, error)
	PutFile(ctx context.Context, installationID int64, owner, repo, filePath, sha, content, message string) error
}

// Target identifies one repository to render
type Target struct {
	InstallationID int64
	OrgID          int64
	OrgLogin       string
	Owner          string
	Repo           string
}

// Service runs rendering passes. Asset contexts are cached per org so
// repeated passes inside the cache TTL skip SVG regeneration.
type Service struct {
	gh         RepoAPI
	store      storage.Store
	resolver   *placeholder.Resolver
	assetCache *cache.Cache
	cfg        config.RenderConfig
	logger     *logrus.Logger
	now        func() time.Time
}

// NewService creates a render service. assetCache is owned by the caller.
func NewService(gh RepoAPI, store storage.Store, resolver *placeholder.Resolver, assetCache *cache.Cache, cfg config.RenderConfig, logger *logrus.Logger) *Service {
	return &Service{
		gh:         gh,
		store:      store,
		resolver:   resolver,
		assetCache: assetCache,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one pass for the target repository
func (s *Service) Run(ctx context.Context, t Target) error {
	pol, err := s.loadPolicy(ctx, t)
	if err != nil {
		return err
	}

	assets, err := s.ensureAssets(ctx, t, pol)
	if err != nil {
		return fmt.Errorf("render assets: %w", err)
	}

	switch pol.Mode {
	case policy.ModeAssetsOnly:
		// Assets are committed above; README is left untouched.
		return nil
	case policy.ModeTemplate:
		return s.commitTemplate(ctx, t, assets)
	}
	return s.resolveReadme(ctx, t, pol, assets)
}

// loadPolicy fetches and parses the org policy file. A missing file means
// defaults. An unparseable file means defaults too, unless the raw
// document asks for strict handling via fail_on_invalid_config.
func (s *Service) loadPolicy(ctx context.Context, t Target) (*policy.Policy, error) {
	file, err := s.gh.FetchFile(ctx, t.InstallationID, t.Owner, t.Repo, s.cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("fetch policy: %w", err)
	}
	if file == nil {
		return policy.Default(), nil
	}

	pol, err := policy.Load([]byte(file.Content))
	if err != nil {
		if wantsStrictConfig([]byte(file.Content)) {
			return nil, fmt.Errorf("invalid policy %s: %w", s.cfg.PolicyPath, err)
		}
		s.logger.WithFields(logrus.Fields{
			"org":  t.OrgLogin,
			"path": s.cfg.PolicyPath,
		}).WithError(err).Warn("invalid policy file, using defaults")
		return policy.Default(), nil
	}
	return pol, nil
}

// wantsStrictConfig reads only the fail_on_invalid_config key out of a
// document that failed full validation.
func wantsStrictConfig(raw []byte) bool {
	var probe struct {
		FailOnInvalidConfig bool `yaml:"fail_on_invalid_config"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.FailOnInvalidConfig
}

// ensureAssets regenerates and commits the themed SVG set for the org,
// returning the asset context for placeholder resolution.
func (s *Service) ensureAssets(ctx context.Context, t Target, pol *policy.Policy) (placeholder.AssetContext, error) {
	cacheKey := fmt.Sprintf("assets-%d", t.OrgID)
	if cached, ok := s.assetCache.Get(cacheKey); ok {
		return cached.(placeholder.AssetContext), nil
	}

	users, err := s.store.GetOrgStats(ctx, t.OrgID, pol.DefaultWindow)
	if err != nil {
		return nil, err
	}
	optedOut, err := s.store.GetOptedOutUserIDs(ctx, t.OrgID)
	if err != nil {
		return nil, err
	}
	users = privacy.Filter(users, privacy.NewOptOutSet(optedOut))

	days, err := s.activityDays(ctx, t.OrgID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	files := map[string]string{
		"leaderboard_light": badge.Leaderboard(t.OrgLogin, users, badge.LightTheme),
		"leaderboard_dark":  badge.Leaderboard(t.OrgLogin, users, badge.DarkTheme),
		"heatmap_light":     badge.Heatmap(t.OrgLogin, days, now, badge.LightTheme),
		"heatmap_dark":      badge.Heatmap(t.OrgLogin, days, now, badge.DarkTheme),
	}

	assets := placeholder.AssetContext{}
	for key, svg := range files {
		assetPath := path.Join(s.cfg.AssetDir, key+".svg")
		if err := s.commitFile(ctx, t, assetPath, svg, "chore: refresh impactboard assets"); err != nil {
			return nil, err
		}
		assets[key] = assetPath
	}
	// The plain keys resolve to the light variant; the _themed form
	// expands to markup switching between the pair.
	assets["leaderboard"] = assets["leaderboard_light"]
	assets["heatmap"] = assets["heatmap_light"]

	s.assetCache.Set(cacheKey, assets)
	return assets, nil
}

// activityDays counts contribution events per UTC day over the heatmap
// horizon.
func (s *Service) activityDays(ctx context.Context, orgID int64) (map[time.Time]int, error) {
	since := s.now().UTC().AddDate(0, 0, -13*7)
	events, err := s.store.GetEvents(ctx, orgID, since)
	if err != nil {
		return nil, err
	}
	days := make(map[time.Time]int, len(events))
	for _, ev := range events {
		day := ev.OccurredAt.UTC().Truncate(24 * time.Hour)
		days[day]++
	}
	return days, nil
}

// resolveReadme runs the placeholder engine over the README and commits
// the result when it changed.
func (s *Service) resolveReadme(ctx context.Context, t Target, pol *policy.Policy, assets placeholder.AssetContext) error {
	file, err := s.gh.FetchFile(ctx, t.InstallationID, t.Owner, t.Repo, s.cfg.ReadmePath)
	if err != nil {
		return fmt.Errorf("fetch readme: %w", err)
	}
	if file == nil {
		s.logger.WithField("org", t.OrgLogin).Debug("no readme to render")
		return nil
	}

	resolved, err := s.resolver.Resolve(ctx, t.OrgID, t.OrgLogin, file.Content, pol, assets)
	if err != nil {
		return fmt.Errorf("resolve readme: %w", err)
	}
	if resolved == file.Content {
		return nil
	}

	if err := s.gh.PutFile(ctx, t.InstallationID, t.Owner, t.Repo, file.Path, file.SHA, resolved, "docs: update contribution board"); err != nil {
		return fmt.Errorf("commit readme: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"org":  t.OrgLogin,
		"repo": t.Repo,
	}).Info("readme updated")
	return nil
}

// commitTemplate writes the fixed board document used by template mode
func (s *Service) commitTemplate(ctx context.Context, t Target, assets placeholder.AssetContext) error {
	content := buildTemplate(t.OrgLogin, assets)
	file, err := s.gh.FetchFile(ctx, t.InstallationID, t.Owner, t.Repo, s.cfg.ReadmePath)
	if err != nil {
		return fmt.Errorf("fetch readme: %w", err)
	}
	sha := ""
	if file != nil {
		if file.Content == content {
			return nil
		}
		sha = file.SHA
	}
	if err := s.gh.PutFile(ctx, t.InstallationID, t.Owner, t.Repo, s.cfg.ReadmePath, sha, content, "docs: update contribution board"); err != nil {
		return fmt.Errorf("commit readme: %w", err)
	}
	return nil
}

func buildTemplate(orgLogin string, assets placeholder.AssetContext) string {
	return fmt.Sprintf(`# %s contribution board

<picture>
  <source media="(prefers-color-scheme: dark)" srcset="%s">
  <img alt="leaderboard" src="%s">
</picture>

<picture>
  <source media="(prefers-color-scheme: dark)" srcset="%s">
  <img alt="activity" src="%s">
</picture>
`, orgLogin,
		assets["leaderboard_dark"], assets["leaderboard_light"],
		assets["heatmap_dark"], assets["heatmap_light"])
}

// commitFile updates one path, looking up the current blob SHA first so
// repeated runs overwrite instead of conflicting. Unchanged content is
// left alone.
func (s *Service) commitFile(ctx context.Context, t Target, filePath, content, message string) error {
	existing, err := s.gh.FetchFile(ctx, t.InstallationID, t.Owner, t.Repo, filePath)
	if err != nil {
		return err
	}
	sha := ""
	if existing != nil {
		if existing.Content == content {
			return nil
		}
		sha = existing.SHA
	}
	return s.gh.PutFile(ctx, t.InstallationID, t.Owner, t.Repo, filePath, sha, content, message)
}

// RenderText resolves placeholders in an in-memory document without
// touching GitHub. Used by the CLI render command.
func (s *Service) RenderText(ctx context.Context, orgID int64, orgLogin, text string, pol *policy.Policy) (string, error) {
	assets := placeholder.AssetContext{}
	for _, key := range []string{"leaderboard", "heatmap"} {
		for _, theme := range []string{"light", "dark"} {
			name := key + "_" + theme
			assets[name] = path.Join(s.cfg.AssetDir, name+".svg")
		}
		assets[key] = assets[key+"_light"]
	}
	return s.resolver.Resolve(ctx, orgID, orgLogin, text, pol, assets)
}
