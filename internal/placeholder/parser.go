package placeholder

import (
	"regexp"
	"strings"

	"github.com/impactboard/impactboard-go/internal/policy"
)

// Grammar:
//
//	{{IMPACTBOARD:<ENTITY>.<SELECTOR>[.<field>][ | opt1=val1, opt2=val2]}}
//
// ENTITY is one of USER|REPO|ORG|SVG. SELECTOR is a token with an optional
// parenthesized argument (TOP(3), USERNAME(alice)); for ORG the selector
// slot carries the field name, for SVG it carries the asset key. Anything
// that does not match passes through the document untouched.
var placeholderRe = regexp.MustCompile(
	`\{\{IMPACTBOARD:(USER|REPO|ORG|SVG)\.([A-Za-z][A-Za-z0-9_]*(?:\([^(){}|]*\))?)(?:\.([a-z][a-z0-9_]*))?(?:\s*\|\s*([^{}]*?))?\s*\}\}`,
)

// Parse scans text in a single pass and returns every well-formed
// placeholder in document order. It is a pure function: no scanner state
// survives between calls, so concurrent resolution passes never interfere.
func Parse(text string) []Occurrence {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	occs := make([]Occurrence, 0, len(matches))
	for _, m := range matches {
		occs = append(occs, Occurrence{
			Raw:      m[0],
			Entity:   policy.Entity(m[1]),
			Selector: m[2],
			Field:    m[3],
			Options:  parseOptions(m[4]),
		})
	}
	return occs
}

// parseOptions splits "k1=v1, k2=v2" into a map. Entries without '=' and
// empty keys are dropped silently; the engine never reports syntax errors
// into rendered output.
func parseOptions(raw string) map[string]string {
	opts := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return opts
	}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		opts[key] = strings.TrimSpace(kv[1])
	}
	return opts
}
