// Package policy loads and validates the org-supplied impactboard.yml
// configuration. All defaults are resolved here, at load time, so the
// placeholder engine never has to reason about absent values.
package policy

import (
	"fmt"
	"os"

	"github.com/impactboard/impactboard-go/internal/models"
	"gopkg.in/yaml.v3"
)

// Mode controls how README content is produced for an org
type Mode string

const (
	// ModeFull resolves placeholders and writes assets
	ModeFull Mode = "full"
	// ModeAssetsOnly writes SVG assets but never touches README text
	ModeAssetsOnly Mode = "assets-only"
	// ModeTemplate renders a fixed template, no placeholder resolution
	ModeTemplate Mode = "template"
)

// Entity names a placeholder entity class
type Entity string

const (
	EntityUser Entity = "USER"
	EntityRepo Entity = "REPO"
	EntityOrg  Entity = "ORG"
	EntitySVG  Entity = "SVG"
)

// Default bounds applied when the YAML omits them
const (
	DefaultTopMax          = 10
	DefaultMaxPlaceholders = 50
)

var defaultAllowedFields = []string{
	"username", "commits", "prs", "issues_closed", "issues_open",
	"loc_added", "loc_removed", "streak", "impact", "rank", "repos",
	"last_active",
	"name", "issues", "contributors", "status",
	"active_users", "total_commits", "total_prs", "total_loc_added",
	"total_repos", "health_score",
}

// UserVisibility carries the per-user cosmetic field restrictions declared
// under public_users. It narrows what is shown for a user who is already
// public at the database level; it never widens anything.
type UserVisibility struct {
	Hide []string `yaml:"hide"`
}

// HidesField reports whether the given field is hidden for this user
func (v UserVisibility) HidesField(field string) bool {
	for _, h := range v.Hide {
		if h == field {
			return true
		}
	}
	return false
}

// Policy is the fully-resolved org configuration consumed by the
// placeholder engine. Every field is populated by Load; zero values only
// occur when they are valid settings in their own right.
type Policy struct {
	Mode                Mode                      `yaml:"mode"`
	Entities            []Entity                  `yaml:"entities"`
	TopMax              int                       `yaml:"top_max"`
	Fields              []string                  `yaml:"fields"`
	MaxPlaceholders     int                       `yaml:"max_placeholders"`
	DefaultWindow       models.Window             `yaml:"default_window"`
	AllowedWindows      []models.Window           `yaml:"windows"`
	PublicUsers         map[string]UserVisibility `yaml:"public_users"`
	FailOnInvalidConfig bool                      `yaml:"fail_on_invalid_config"`
}

// Default returns the policy applied when an org has no impactboard.yml
func Default() *Policy {
	return &Policy{
		Mode:            ModeFull,
		Entities:        []Entity{EntityUser, EntityRepo, EntityOrg},
		TopMax:          DefaultTopMax,
		Fields:          append([]string(nil), defaultAllowedFields...),
		MaxPlaceholders: DefaultMaxPlaceholders,
		DefaultWindow:   models.Window30d,
		AllowedWindows: []models.Window{
			models.Window7d, models.Window30d, models.Window90d, models.WindowAllTime,
		},
		PublicUsers: map[string]UserVisibility{},
	}
}

// Load parses YAML bytes into a Policy, fills defaults, and validates.
// The returned policy is complete: the engine can index any field without
// nil checks.
func Load(data []byte) (*Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy yaml: %w", err)
	}
	applyDefaults(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads and parses a policy file from disk
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	return Load(data)
}

func applyDefaults(p *Policy) {
	d := Default()
	if p.Mode == "" {
		p.Mode = d.Mode
	}
	if len(p.Entities) == 0 {
		p.Entities = d.Entities
	}
	if p.TopMax <= 0 {
		p.TopMax = d.TopMax
	}
	if len(p.Fields) == 0 {
		p.Fields = d.Fields
	}
	if p.MaxPlaceholders <= 0 {
		p.MaxPlaceholders = d.MaxPlaceholders
	}
	if p.DefaultWindow == "" {
		p.DefaultWindow = d.DefaultWindow
	}
	if len(p.AllowedWindows) == 0 {
		p.AllowedWindows = d.AllowedWindows
	}
	if p.PublicUsers == nil {
		p.PublicUsers = map[string]UserVisibility{}
	}
}

// Validate checks the resolved policy for values the engine cannot honor
func (p *Policy) Validate() error {
	switch p.Mode {
	case ModeFull, ModeAssetsOnly, ModeTemplate:
	default:
		return fmt.Errorf("invalid mode %q", p.Mode)
	}
	for _, e := range p.Entities {
		switch e {
		case EntityUser, EntityRepo, EntityOrg, EntitySVG:
		default:
			return fmt.Errorf("invalid entity %q", e)
		}
	}
	for _, w := range p.AllowedWindows {
		if _, ok := models.ParseWindow(string(w)); !ok {
			return fmt.Errorf("invalid window %q", w)
		}
	}
	if _, ok := models.ParseWindow(string(p.DefaultWindow)); !ok {
		return fmt.Errorf("invalid default window %q", p.DefaultWindow)
	}
	if !p.WindowAllowed(p.DefaultWindow) {
		return fmt.Errorf("default window %q is not in allowed windows", p.DefaultWindow)
	}
	return nil
}

// EntityAllowed reports whether the entity may be resolved under this
// policy. SVG is an asset reference, not a data disclosure, so it is
// always permitted regardless of the entities list.
func (p *Policy) EntityAllowed(e Entity) bool {
	if e == EntitySVG {
		return true
	}
	for _, allowed := range p.Entities {
		if allowed == e {
			return true
		}
	}
	return false
}

// FieldAllowed reports whether the field is on the org's allow-list
func (p *Policy) FieldAllowed(field string) bool {
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// WindowAllowed reports whether the window is on the org's allow-list
func (p *Policy) WindowAllowed(w models.Window) bool {
	for _, allowed := range p.AllowedWindows {
		if allowed == w {
			return true
		}
	}
	return false
}

// Visibility returns the per-user restrictions for a login, if declared
func (p *Policy) Visibility(login string) (UserVisibility, bool) {
	v, ok := p.PublicUsers[login]
	return v, ok
}
