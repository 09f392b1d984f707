// Package checks provides reusable pre-dispatch checks. A failing check
// answers the actor itself and stops the dispatch.
package checks

import (
	"go.uber.org/zap"

	"interbot/pkg/logger"
	"interbot/pkg/slash"
)

// GuildOnly rejects invocations from direct messages.
func GuildOnly() slash.Check {
	return func(c *slash.Context) bool {
		if c.Event().InGuild() {
			return true
		}
		_ = c.ReplyEphemeral(c.T("check.guild_only"))
		return false
	}
}

// AllowList admits only the listed actor IDs. An empty list or "*" admits
// everyone.
func AllowList(log *logger.Logger, ids []string) slash.Check {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return func(c *slash.Context) bool {
		if isAllowed(allowed, c.Event().ActorID) {
			return true
		}
		log.Warn("Unauthorized user",
			zap.String("user_id", c.Event().ActorID),
			zap.String("username", c.Event().ActorName))
		_ = c.ReplyEphemeral(c.T("check.not_allowed"))
		return false
	}
}

func isAllowed(allowed map[string]struct{}, actorID string) bool {
	if len(allowed) == 0 {
		return true
	}
	if _, ok := allowed["*"]; ok {
		return true
	}
	_, ok := allowed[actorID]
	return ok
}

// Set is the list of checks every built-in command runs first.
type Set struct {
	base []slash.Check
}

// NewSet builds a set from the given checks; nil entries are skipped.
func NewSet(checks ...slash.Check) *Set {
	s := &Set{}
	for _, c := range checks {
		if c != nil {
			s.base = append(s.base, c)
		}
	}
	return s
}

// Base returns the shared checks followed by extra.
func (s *Set) Base(extra ...slash.Check) []slash.Check {
	if s == nil {
		return extra
	}
	out := make([]slash.Check, 0, len(s.base)+len(extra))
	out = append(out, s.base...)
	return append(out, extra...)
}

// Guild returns the shared checks plus GuildOnly and extra.
func (s *Set) Guild(extra ...slash.Check) []slash.Check {
	return s.Base(append([]slash.Check{GuildOnly()}, extra...)...)
}
