package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"interbot/pkg/slash"
	"interbot/pkg/slash/checks"
	"interbot/pkg/version"
)

type pingCommand struct {
	info   SessionInfo
	checks *checks.Set
}

// NewPing creates /ping.
func NewPing(info SessionInfo, set *checks.Set) slash.Command {
	return &pingCommand{info: info, checks: set}
}

func (p *pingCommand) Name() string          { return "ping" }
func (p *pingCommand) Description() string   { return "Check that the bot is responsive" }
func (p *pingCommand) Checks() []slash.Check { return p.checks.Base() }

func (p *pingCommand) Handle(c *slash.Context) error {
	latency := p.info.Latency().Round(time.Millisecond)
	return c.Reply(c.T("ping.reply", latency.String()))
}

type statsCommand struct {
	stats  *slash.Stats
	checks *checks.Set
}

// NewStats creates /stats.
func NewStats(stats *slash.Stats, set *checks.Set) slash.Command {
	return &statsCommand{stats: stats, checks: set}
}

func (s *statsCommand) Name() string          { return "stats" }
func (s *statsCommand) Description() string   { return "Show dispatch statistics" }
func (s *statsCommand) Checks() []slash.Check { return s.checks.Base() }

func (s *statsCommand) Handle(c *slash.Context) error {
	snap := s.stats.Snapshot()
	o := snap.Outcomes
	lines := []string{c.T("stats.reply",
		snap.Since.UTC().Format("2006-01-02 15:04 MST"),
		snap.Total,
		o[slash.OutcomeCompleted.String()],
		o[slash.OutcomeFailed.String()],
		o[slash.OutcomeDenied.String()],
		o[slash.OutcomeHalted.String()],
		o[slash.OutcomeMissed.String()],
	)}
	if top := topCommands(snap.Commands, 3); top != "" {
		lines = append(lines, c.T("stats.top", top))
	}
	return c.ReplyEphemeral(strings.Join(lines, "\n"))
}

// topCommands renders the n most used commands as "name (count)".
func topCommands(counts map[string]uint64, n int) string {
	type pair struct {
		name  string
		count uint64
	}
	pairs := make([]pair, 0, len(counts))
	for name, count := range counts {
		pairs = append(pairs, pair{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("/%s (%d)", p.name, p.count)
	}
	return strings.Join(parts, ", ")
}

type helpCommand struct {
	dir    *Directory
	checks *checks.Set
}

// NewHelp creates /help.
func NewHelp(dir *Directory, set *checks.Set) slash.Command {
	return &helpCommand{dir: dir, checks: set}
}

func (h *helpCommand) Name() string          { return "help" }
func (h *helpCommand) Description() string   { return "List available commands" }
func (h *helpCommand) Checks() []slash.Check { return h.checks.Base() }

func (h *helpCommand) Handle(c *slash.Context) error {
	reg := h.dir.Registry()
	if reg == nil {
		return c.ReplyEphemeral(c.T("command.not_implemented"))
	}

	var sb strings.Builder
	sb.WriteString(c.T("help.header"))
	for _, cmd := range reg.Commands() {
		name := strings.ToLower(cmd.Name())
		sb.WriteString("\n")
		sb.WriteString(c.T("help.entry", name, compactDescription(slash.Describe(cmd), 72)))
		for _, sc := range reg.Table(cmd.Name()).Entries() {
			path := name
			if sc.Group != "" {
				path += " " + strings.ToLower(sc.Group)
			}
			path += " " + strings.ToLower(sc.Name)
			sb.WriteString("\n  ")
			sb.WriteString(c.T("help.entry", path, compactDescription(sc.Description, 60)))
		}
	}
	return c.ReplyEphemeral(sb.String())
}

func compactDescription(desc string, limit int) string {
	desc = strings.Join(strings.Fields(strings.TrimSpace(desc)), " ")
	if limit <= 0 {
		limit = 72
	}
	runes := []rune(desc)
	if len(runes) <= limit {
		return desc
	}
	return string(runes[:limit-1]) + "…"
}

type aboutCommand struct {
	info   SessionInfo
	checks *checks.Set
}

// NewAbout creates /about.
func NewAbout(info SessionInfo, set *checks.Set) slash.Command {
	return &aboutCommand{info: info, checks: set}
}

func (a *aboutCommand) Name() string          { return "about" }
func (a *aboutCommand) Description() string   { return "Show version and build information" }
func (a *aboutCommand) Checks() []slash.Check { return a.checks.Base() }

func (a *aboutCommand) Handle(c *slash.Context) error {
	return c.Reply(c.T("about.reply",
		version.AppName(),
		version.GetVersion(),
		version.GetCommit(),
		version.GetBuild(),
		version.Discordgo(),
		a.info.GuildCount(),
	))
}
