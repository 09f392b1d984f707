package commands

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"interbot/pkg/i18n"
	"interbot/pkg/slash"
	"interbot/pkg/slash/checks"
)

type settingsCommand struct {
	store   LocaleStore
	locales Locales
	checks  *checks.Set
}

// NewSettings creates /settings with the "language" group.
func NewSettings(store LocaleStore, locales Locales, set *checks.Set) slash.Command {
	return &settingsCommand{store: store, locales: locales, checks: set}
}

func (s *settingsCommand) Name() string          { return "settings" }
func (s *settingsCommand) Description() string   { return "Configure the bot for this server" }
func (s *settingsCommand) Checks() []slash.Check { return s.checks.Guild() }

func (s *settingsCommand) SubCommands() []slash.SubCommand {
	manage := slash.Require(discordgo.PermissionManageGuild)
	return []slash.SubCommand{
		{
			Group:       "language",
			Description: "Set the language replies use in this server",
			Handler:     s.Set,
			Permissions: manage,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "locale",
				Description: "Language to use",
				Required:    true,
				Choices:     s.localeChoices(),
			}},
		},
		{
			Group:       "language",
			Description: "Show the server language",
			Handler:     s.Show,
		},
		{
			Group:       "language",
			Description: "Follow each member's client language again",
			Handler:     s.Reset,
			Permissions: manage,
		},
	}
}

// Handle answers /settings invocations that name no known subcommand.
func (s *settingsCommand) Handle(c *slash.Context) error {
	return c.ReplyEphemeral(c.T("settings.usage"))
}

func (s *settingsCommand) Set(c *slash.Context) error {
	requested := c.Option("locale")
	locale, err := s.store.SetGuildLocale(c.Context(), c.Event().GuildID, requested)
	if errors.Is(err, i18n.ErrUnsupportedLocale) {
		return c.ReplyEphemeral(c.T("settings.language.unsupported",
			requested, strings.Join(s.locales.Supported(), ", ")))
	}
	if err != nil {
		return err
	}
	return c.Reply(c.T("settings.language.set", s.locales.DisplayName(locale)))
}

func (s *settingsCommand) Show(c *slash.Context) error {
	locale, ok := s.store.GuildLocale(c.Context(), c.Event().GuildID)
	if !ok {
		return c.ReplyEphemeral(c.T("settings.language.default"))
	}
	return c.ReplyEphemeral(c.T("settings.language.show", s.locales.DisplayName(locale)))
}

func (s *settingsCommand) Reset(c *slash.Context) error {
	if err := s.store.ClearGuildLocale(c.Context(), c.Event().GuildID); err != nil {
		return err
	}
	return c.Reply(c.T("settings.language.reset"))
}

func (s *settingsCommand) localeChoices() []*discordgo.ApplicationCommandOptionChoice {
	supported := s.locales.Supported()
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(supported))
	for _, loc := range supported {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{
			Name:  s.locales.DisplayName(loc),
			Value: loc,
		})
	}
	return out
}
