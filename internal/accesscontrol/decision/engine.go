// Package decision implements C7, the pure rule matcher and specificity
// ranker, and C8, the TTL cache fronting it.
package decision

import (
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

// specificity is the 4-tuple compared lexicographically to rank applicable
// rules; a higher tuple wins (spec.md §4.6 step 2).
type specificity [4]int

// less reports whether s is lexicographically smaller than other.
func (s specificity) less(other specificity) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

func (s specificity) geq(other specificity) bool {
	return !s.less(other)
}

// Evaluate is C7's pure contract: evaluate(request, rules) -> decision. It
// never touches I/O and produces the same result regardless of rule order.
func Evaluate(req domain.PermissionRequest, rules []domain.PolicyRule) domain.AuthorizationDecision {
	var bestAllow, bestDeny *specificity

	for _, rule := range rules {
		if !applicable(req, rule) {
			continue
		}
		spec := specificityOf(req, rule)
		switch rule.Effect {
		case domain.EffectAllow:
			if bestAllow == nil || spec.geq(*bestAllow) {
				s := spec
				bestAllow = &s
			}
		case domain.EffectDeny:
			if bestDeny == nil || spec.geq(*bestDeny) {
				s := spec
				bestDeny = &s
			}
		}
	}

	switch {
	case bestAllow == nil && bestDeny == nil:
		if len(rules) == 0 {
			return domain.AuthorizationDecision{Allowed: false, Reason: "no matching policy rule"}
		}
		return domain.AuthorizationDecision{Allowed: false, Reason: "no rule matched context/columns"}
	case bestAllow == nil && bestDeny != nil:
		return domain.AuthorizationDecision{Allowed: false, Reason: "explicit deny rule"}
	case bestAllow != nil && bestDeny == nil:
		return domain.AuthorizationDecision{Allowed: true, Reason: "allow rule matched"}
	default:
		if bestDeny.geq(*bestAllow) {
			return domain.AuthorizationDecision{Allowed: false, Reason: "deny rule won by precedence"}
		}
		return domain.AuthorizationDecision{Allowed: true, Reason: "allow rule won by specificity"}
	}
}

// applicable implements the §4.6 step 1 filter: column match and owner
// scope must both hold for the rule to be considered at all.
func applicable(req domain.PermissionRequest, rule domain.PolicyRule) bool {
	if len(req.RequestedColumns) > 0 {
		if rule.AllowedColumns != nil {
			allowed := toSet(*rule.AllowedColumns)
			for _, col := range req.RequestedColumns {
				if !allowed[col] {
					return false
				}
			}
		}
		if rule.DeniedColumns != nil {
			denied := toSet(*rule.DeniedColumns)
			for _, col := range req.RequestedColumns {
				if denied[col] {
					return false
				}
			}
		}
	}

	if rule.OwnerScope {
		if req.SubjectOwnerID == nil || req.RowOwnerID == nil {
			return false
		}
		if *req.SubjectOwnerID != *req.RowOwnerID {
			return false
		}
	}

	return true
}

// specificityOf computes the rule's specificity tuple against the request
// that matched it (spec.md §4.6 step 2).
func specificityOf(req domain.PermissionRequest, rule domain.PolicyRule) specificity {
	var s specificity

	if rule.ResourceName == req.ResourceName {
		s[0] = 2
	} else {
		s[0] = 1 // wildcard match
	}

	if rule.ActionName == req.ActionName {
		s[1] = 2
	} else {
		s[1] = 1
	}

	if rule.AllowedColumns != nil || rule.DeniedColumns != nil {
		s[2] = 1
	}

	if rule.OwnerScope {
		s[3] = 1
	}

	return s
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
