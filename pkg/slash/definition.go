package slash

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

const (
	defaultDescription = "No description"
	// maxDescription is Discord's limit in characters.
	maxDescription = 100
)

// Definition returns the application command advertised for cmd. Commands
// implementing Definer supply their own; otherwise one is derived from the
// description and the subcommand table.
//
// Command and group names are sent as registered because events are routed
// on them verbatim; Discord rejects names that are not lowercase at sync.
// Subcommand names resolve case-insensitively and are lowered.
func Definition(cmd Command, table *Table) *discordgo.ApplicationCommand {
	if d, ok := cmd.(Definer); ok {
		if def := d.Definition(); def != nil {
			return def
		}
	}

	def := &discordgo.ApplicationCommand{
		Name:        cmd.Name(),
		Description: describe(cmd),
	}

	groups := make(map[string]*discordgo.ApplicationCommandOption)
	for _, sc := range table.Entries() {
		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        strings.ToLower(sc.Name),
			Description: orDefault(sc.Description),
			Options:     sc.Options,
		}
		if sc.Group == "" {
			def.Options = append(def.Options, opt)
			continue
		}
		g, ok := groups[sc.Group]
		if !ok {
			g = &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        sc.Group,
				Description: sc.Group,
			}
			groups[sc.Group] = g
			def.Options = append(def.Options, g)
		}
		g.Options = append(g.Options, opt)
	}
	return def
}

// Definitions returns the definitions of every command in the registry.
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(r.names))
	for _, name := range r.names {
		e := r.entries[name]
		out = append(out, Definition(e.cmd, e.table))
	}
	return out
}

func describe(cmd Command) string {
	if d, ok := cmd.(Describer); ok {
		return orDefault(d.Description())
	}
	return defaultDescription
}

// Describe returns the description of cmd, or a placeholder.
func Describe(cmd Command) string {
	return describe(cmd)
}

func orDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultDescription
	}
	if utf8.RuneCountInString(s) <= maxDescription {
		return s
	}
	return string([]rune(s)[:maxDescription])
}
