package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type moderationAPI interface {
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
}

// Moderation performs member actions on behalf of commands.
type Moderation struct {
	api moderationAPI
}

// NewModeration creates a Moderation backed by session.
func NewModeration(session *discordgo.Session) *Moderation {
	return &Moderation{api: session}
}

// Ban bans userID from guildID without deleting message history.
func (m *Moderation) Ban(ctx context.Context, guildID, userID, reason string) error {
	if err := m.api.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("banning %s: %w", userID, err)
	}
	return nil
}

// Kick removes userID from guildID.
func (m *Moderation) Kick(ctx context.Context, guildID, userID, reason string) error {
	if err := m.api.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("kicking %s: %w", userID, err)
	}
	return nil
}
