package attribution

import (
	"time"

	"go-modlogger/internal/models"
)

// Rule names the matching step that produced an actor.
type Rule string

const (
	RuleHintedTarget Rule = "hinted_target"
	RuleHintedAny    Rule = "hinted_any"
	RuleTarget       Rule = "target"
	RuleRecent       Rule = "recent"
	RuleNone         Rule = "unknown"
)

// match applies the precedence rules to one page of entries, newest first.
func match(entries []models.AuditEntry, q Query, now time.Time, staleness time.Duration) (models.AuditEntry, Rule) {
	if len(entries) == 0 {
		return models.AuditEntry{}, RuleNone
	}

	if q.Hint != nil {
		for _, e := range entries {
			if e.TargetID == q.TargetID && hasRoleChange(e, q.Hint.RoleID, q.Hint.Direction) {
				return e, RuleHintedTarget
			}
		}
		// some integrations log the role change against a different target
		for _, e := range entries {
			if hasRoleChange(e, q.Hint.RoleID, "") {
				return e, RuleHintedAny
			}
		}
	}

	for _, e := range entries {
		if e.TargetID == q.TargetID {
			return e, RuleTarget
		}
	}

	if q.StrictTarget {
		return models.AuditEntry{}, RuleNone
	}

	recent := entries[0]
	if !recent.CreatedAt.IsZero() && now.Sub(recent.CreatedAt) < staleness {
		return recent, RuleRecent
	}

	return models.AuditEntry{}, RuleNone
}

// hasRoleChange reports whether e touches roleID; an empty direction matches either key.
func hasRoleChange(e models.AuditEntry, roleID string, direction models.DeltaKey) bool {
	for _, change := range e.Changes {
		if direction != "" && change.Key != direction {
			continue
		}
		if change.Contains(roleID) {
			return true
		}
	}
	return false
}
