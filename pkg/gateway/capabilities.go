package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"interbot/pkg/slash"
)

type permissionAPI interface {
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Capabilities resolves permission sets from the interaction payload, falling
// back to computing channel permissions through the session.
type Capabilities struct {
	api   permissionAPI
	botID func() string
}

// NewCapabilities creates a provider backed by session.
func NewCapabilities(session *discordgo.Session) *Capabilities {
	return &Capabilities{
		api: session,
		botID: func() string {
			if session.State != nil && session.State.User != nil {
				return session.State.User.ID
			}
			return ""
		},
	}
}

// Capabilities implements slash.CapabilityProvider.
func (c *Capabilities) Capabilities(ctx context.Context, ev *slash.Event, who slash.Scope) (int64, error) {
	i, _ := ev.Raw.(*discordgo.InteractionCreate)

	switch who {
	case slash.ScopeUser:
		if i != nil && i.Member != nil && i.Member.Permissions != 0 {
			return i.Member.Permissions, nil
		}
		return c.channelPermissions(ctx, ev.ActorID, ev.ChannelID)
	case slash.ScopeBot:
		if i != nil && i.AppPermissions != 0 {
			return i.AppPermissions, nil
		}
		id := c.botID()
		if id == "" {
			return 0, errors.New("bot user is not known yet")
		}
		return c.channelPermissions(ctx, id, ev.ChannelID)
	default:
		return 0, fmt.Errorf("unsupported scope %d", who)
	}
}

func (c *Capabilities) channelPermissions(ctx context.Context, userID, channelID string) (int64, error) {
	if userID == "" || channelID == "" {
		return 0, errors.New("missing user or channel")
	}
	perms, err := c.api.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("fetching channel permissions: %w", err)
	}
	return perms, nil
}
