package gateway

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"interbot/pkg/slash"
)

// EventFromInteraction converts a chat-input command interaction into a
// dispatcher event. Other interaction kinds report false.
func EventFromInteraction(i *discordgo.InteractionCreate) (*slash.Event, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	data := i.ApplicationCommandData()
	if data.CommandType != 0 && data.CommandType != discordgo.ChatApplicationCommand {
		return nil, false
	}

	ev := &slash.Event{
		ID:        i.ID,
		Command:   data.Name,
		Options:   make(map[string]string),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Locale:    string(i.Locale),
		Raw:       i,
	}
	if i.GuildLocale != nil {
		ev.GuildLocale = string(*i.GuildLocale)
	}
	ev.ActorID, ev.ActorName = actor(i)

	opts := data.Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup {
		ev.Group = opts[0].Name
		opts = opts[0].Options
	}
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		ev.SubCommand = opts[0].Name
		opts = opts[0].Options
	}
	for _, opt := range opts {
		ev.Options[opt.Name] = optionValue(opt)
	}
	return ev, true
}

func actor(i *discordgo.InteractionCreate) (id, name string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, i.Member.User.Username
	}
	if i.User != nil {
		return i.User.ID, i.User.Username
	}
	return "", ""
}

// optionValue renders a leaf option as a string. Entity options (user,
// channel, role, mentionable) carry their snowflake ID.
func optionValue(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString:
		return opt.StringValue()
	case discordgo.ApplicationCommandOptionInteger:
		return strconv.FormatInt(opt.IntValue(), 10)
	case discordgo.ApplicationCommandOptionNumber:
		return strconv.FormatFloat(opt.FloatValue(), 'f', -1, 64)
	case discordgo.ApplicationCommandOptionBoolean:
		return strconv.FormatBool(opt.BoolValue())
	default:
		if opt.Value == nil {
			return ""
		}
		return fmt.Sprint(opt.Value)
	}
}
