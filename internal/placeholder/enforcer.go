package placeholder

import (
	"github.com/impactboard/impactboard-go/internal/policy"
)

// The enforcer applies the org's allow-list to one occurrence before any
// data is touched. Every rejection short-circuits to fallback at the
// orchestrator; nothing here ever surfaces an error into output.

// entityAllowed is rule 2: entity must be on the policy's entity list.
// SVG is always permitted since it references an asset, not data.
func entityAllowed(occ Occurrence, pol *policy.Policy) bool {
	return pol.EntityAllowed(occ.Entity)
}

// selectorAllowed is rule 3: bounded positional selectors on USER must
// stay within top_max. USERNAME and repo selectors are not bounded.
func selectorAllowed(occ Occurrence, sel parsedSelector, pol *policy.Policy) bool {
	if occ.Entity != policy.EntityUser {
		return true
	}
	switch sel.token {
	case SelectorTop, SelectorRank:
		return sel.hasN && sel.n <= pol.TopMax
	}
	return true
}

// fieldAllowed is the allow-list part of rule 5. For ORG the selector
// slot carries the field name.
func fieldAllowed(occ Occurrence, pol *policy.Policy) bool {
	field := occ.Field
	if occ.Entity == policy.EntityOrg {
		field = occ.Selector
	}
	if field == "" {
		return false
	}
	return pol.FieldAllowed(field)
}

// fieldHidden is the per-user part of rule 5: a public user's declared
// hide list blanks individual fields while the user stays visible. This
// layers on top of the database-level opt-out filter and never weakens it.
func fieldHidden(login, field string, pol *policy.Policy) bool {
	v, ok := pol.Visibility(login)
	if !ok {
		return false
	}
	return v.HidesField(field)
}
