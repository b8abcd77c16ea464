package placeholder

import (
	"strings"

	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/policy"
)

// Option keys recognized in the placeholder option list
const (
	OptionWindow   = "window"
	OptionFormat   = "format"
	OptionFallback = "fallback"
)

// Occurrence is one parsed placeholder in document order. Raw holds the
// exact matched substring so the orchestrator can splice the resolved
// value back by verbatim substring replacement.
type Occurrence struct {
	Raw      string
	Entity   policy.Entity
	Selector string
	Field    string
	Options  map[string]string
}

// Fallback returns the user-declared fallback value, or "" if none
func (o Occurrence) Fallback() string {
	return o.Options[OptionFallback]
}

// Format returns the requested format option, or "" if none
func (o Occurrence) Format() string {
	return o.Options[OptionFormat]
}

// Window returns the requested window if it is valid and allowed by the
// policy, else the policy default. An unknown or disallowed window is not
// an error; the default simply applies.
func (o Occurrence) Window(pol *policy.Policy) models.Window {
	raw, ok := o.Options[OptionWindow]
	if !ok {
		return pol.DefaultWindow
	}
	w, ok := models.ParseWindow(strings.TrimSpace(raw))
	if !ok || !pol.WindowAllowed(w) {
		return pol.DefaultWindow
	}
	return w
}
