package commands

import (
	"github.com/bwmarrin/discordgo"

	"interbot/pkg/slash"
	"interbot/pkg/slash/checks"
)

type adminCommand struct {
	mod    Moderator
	checks *checks.Set
}

// NewAdmin creates /admin with the "user" group of moderation subcommands.
func NewAdmin(mod Moderator, set *checks.Set) slash.Command {
	return &adminCommand{mod: mod, checks: set}
}

func (a *adminCommand) Name() string          { return "admin" }
func (a *adminCommand) Description() string   { return "Moderate server members" }
func (a *adminCommand) Checks() []slash.Check { return a.checks.Guild() }

func (a *adminCommand) SubCommands() []slash.SubCommand {
	return []slash.SubCommand{
		{
			Group:       "user",
			Description: "Ban a member from the server",
			Handler:     a.Ban,
			Permissions: slash.RequireBoth(discordgo.PermissionBanMembers),
			Options:     memberOptions(),
		},
		{
			Group:       "user",
			Description: "Kick a member from the server",
			Handler:     a.Kick,
			Permissions: slash.RequireBoth(discordgo.PermissionKickMembers),
			Options:     memberOptions(),
		},
	}
}

// Handle answers /admin invocations that name no known subcommand.
func (a *adminCommand) Handle(c *slash.Context) error {
	return c.ReplyEphemeral(c.T("admin.usage"))
}

func (a *adminCommand) Ban(c *slash.Context) error {
	target := c.Option("member")
	if target == "" {
		return c.ReplyEphemeral(c.T("admin.target_missing"))
	}
	if err := a.mod.Ban(c.Context(), c.Event().GuildID, target, c.Option("reason")); err != nil {
		return err
	}
	return c.Reply(c.T("admin.banned", target))
}

func (a *adminCommand) Kick(c *slash.Context) error {
	target := c.Option("member")
	if target == "" {
		return c.ReplyEphemeral(c.T("admin.target_missing"))
	}
	if err := a.mod.Kick(c.Context(), c.Event().GuildID, target, c.Option("reason")); err != nil {
		return err
	}
	return c.Reply(c.T("admin.kicked", target))
}

func memberOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "Member to act on",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason recorded in the audit log",
		},
	}
}
