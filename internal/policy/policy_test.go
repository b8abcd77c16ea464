package policy

import (
	"testing"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FullConfig(t *testing.T) {
	yml := `
mode: full
entities: [USER, ORG]
top_max: 5
fields: [username, commits, rank]
max_placeholders: 20
default_window: 7d
windows: [7d, 30d]
public_users:
  bob:
    hide: [rank, streak]
fail_on_invalid_config: true
`
	p, err := Load([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, ModeFull, p.Mode)
	assert.Equal(t, []Entity{EntityUser, EntityOrg}, p.Entities)
	assert.Equal(t, 5, p.TopMax)
	assert.Equal(t, 20, p.MaxPlaceholders)
	assert.Equal(t, models.Window7d, p.DefaultWindow)
	assert.True(t, p.FailOnInvalidConfig)

	v, ok := p.Visibility("bob")
	require.True(t, ok)
	assert.True(t, v.HidesField("rank"))
	assert.True(t, v.HidesField("streak"))
	assert.False(t, v.HidesField("commits"))
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	p, err := Load([]byte("mode: assets-only\n"))
	require.NoError(t, err)

	assert.Equal(t, ModeAssetsOnly, p.Mode)
	assert.Equal(t, DefaultTopMax, p.TopMax)
	assert.Equal(t, DefaultMaxPlaceholders, p.MaxPlaceholders)
	assert.Equal(t, models.Window30d, p.DefaultWindow)
	assert.NotEmpty(t, p.Fields)
	assert.NotEmpty(t, p.AllowedWindows)
	assert.NotNil(t, p.PublicUsers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"bad mode", "mode: rampage\n"},
		{"bad entity", "entities: [USER, DROID]\n"},
		{"bad window", "windows: [14d]\n"},
		{"bad default window", "default_window: fortnight\n"},
		{"default window not allowed", "default_window: 90d\nwindows: [7d]\n"},
		{"not yaml", ": : :\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yml))
			assert.Error(t, err)
		})
	}
}

func TestEntityAllowed(t *testing.T) {
	p := Default()
	p.Entities = []Entity{EntityOrg}

	assert.True(t, p.EntityAllowed(EntityOrg))
	assert.False(t, p.EntityAllowed(EntityUser))
	assert.False(t, p.EntityAllowed(EntityRepo))
	assert.True(t, p.EntityAllowed(EntitySVG), "SVG is always allowed")
}

func TestFieldAndWindowAllowed(t *testing.T) {
	p := Default()
	p.Fields = []string{"commits"}
	p.AllowedWindows = []models.Window{models.Window7d}

	assert.True(t, p.FieldAllowed("commits"))
	assert.False(t, p.FieldAllowed("rank"))
	assert.True(t, p.WindowAllowed(models.Window7d))
	assert.False(t, p.WindowAllowed(models.WindowAllTime))
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
