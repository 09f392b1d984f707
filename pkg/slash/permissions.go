package slash

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// Scope selects whose capabilities a requirement applies to.
type Scope uint8

const (
	// ScopeUser checks the invoking actor.
	ScopeUser Scope = 1 << iota
	// ScopeBot checks the bot's own member.
	ScopeBot
	// ScopeBoth checks both.
	ScopeBoth = ScopeUser | ScopeBot
)

// Has reports whether s includes other.
func (s Scope) Has(other Scope) bool {
	return s&other != 0
}

// Permissions is a required capability set and the scope it applies to.
// A zero Scope means ScopeUser.
type Permissions struct {
	Required int64
	Scope    Scope
}

// Require builds a user-scoped requirement.
func Require(perms ...int64) *Permissions {
	return &Permissions{Required: combine(perms), Scope: ScopeUser}
}

// RequireBoth builds a requirement checked for the actor and the bot.
func RequireBoth(perms ...int64) *Permissions {
	return &Permissions{Required: combine(perms), Scope: ScopeBoth}
}

func combine(perms []int64) int64 {
	var out int64
	for _, p := range perms {
		out |= p
	}
	return out
}

// CapabilityProvider returns the effective capability set of the actor
// (ScopeUser) or of the bot (ScopeBot) for an event.
type CapabilityProvider interface {
	Capabilities(ctx context.Context, ev *Event, who Scope) (int64, error)
}

// Decision is the result of a permission evaluation.
type Decision uint8

const (
	// Allowed lets routing continue.
	Allowed Decision = iota
	// Denied means a rejection was sent and routing stops.
	Denied
)

// Gate evaluates permission requirements.
type Gate struct {
	provider CapabilityProvider
	log      *logger.Logger
}

// NewGate creates a gate. A nil provider denies every requirement.
func NewGate(provider CapabilityProvider, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.NewNop()
	}
	return &Gate{provider: provider, log: log}
}

// Evaluate checks req against the context's actor and, if the scope says so,
// the bot. On deny it sends an ephemeral rejection naming what is missing.
func (g *Gate) Evaluate(c *Context, req *Permissions) Decision {
	if req == nil || req.Required == 0 {
		return Allowed
	}
	scope := req.Scope
	if scope == 0 {
		scope = ScopeUser
	}

	if scope.Has(ScopeUser) {
		if missing, ok := g.missing(c, ScopeUser, req.Required); !ok {
			g.reject(c, "permission.denied.user", missing)
			return Denied
		}
	}
	if scope.Has(ScopeBot) {
		if missing, ok := g.missing(c, ScopeBot, req.Required); !ok {
			g.reject(c, "permission.denied.bot", missing)
			return Denied
		}
	}
	return Allowed
}

func (g *Gate) missing(c *Context, who Scope, required int64) (int64, bool) {
	if g.provider == nil {
		return required, false
	}
	have, err := g.provider.Capabilities(c.Context(), c.Event(), who)
	if err != nil {
		g.log.Warn("Capability lookup failed, denying",
			zap.String("command", c.Event().Command),
			zap.String("actor", c.Event().ActorID),
			zap.Uint8("scope", uint8(who)),
			zap.Error(err),
		)
		return required, false
	}
	if have&discordgo.PermissionAdministrator != 0 {
		return 0, true
	}
	missing := required &^ have
	return missing, missing == 0
}

func (g *Gate) reject(c *Context, key string, missing int64) {
	msg := c.T(key, strings.Join(PermissionNames(missing), ", "))
	if err := c.ReplyEphemeral(msg); err != nil {
		g.log.Warn("Failed to send permission rejection",
			zap.String("command", c.Event().Command),
			zap.Error(err),
		)
	}
}

var permissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:    "Create Instant Invite",
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageGuild:            "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionAttachFiles:            "Attach Files",
	discordgo.PermissionReadMessageHistory:     "Read Message History",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:      "Use External Emojis",
	discordgo.PermissionUseApplicationCommands: "Use Application Commands",
	discordgo.PermissionManageThreads:          "Manage Threads",
	discordgo.PermissionVoiceConnect:           "Connect",
	discordgo.PermissionVoiceSpeak:             "Speak",
	discordgo.PermissionVoiceMuteMembers:       "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:     "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:       "Move Members",
	discordgo.PermissionChangeNickname:         "Change Nickname",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionManageEvents:           "Manage Events",
	discordgo.PermissionModerateMembers:        "Moderate Members",
}

// PermissionNames returns human-readable names for the bits in set, in bit
// order. Unnamed bits are skipped.
func PermissionNames(set int64) []string {
	bits := make([]int64, 0, len(permissionNames))
	for bit := range permissionNames {
		if set&bit != 0 {
			bits = append(bits, bit)
		}
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	names := make([]string, len(bits))
	for i, bit := range bits {
		names[i] = permissionNames[bit]
	}
	return names
}
