package gateway

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

type commandAPI interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// CommandSync publishes the registry's definitions to Discord. The hash of
// the last published set is kept in the state store so unchanged sets are
// not re-sent on every start.
type CommandSync struct {
	api      commandAPI
	registry *slash.Registry
	kv       state.KV
	log      *logger.Logger
}

// NewCommandSync creates a CommandSync. kv may be nil, which always syncs.
func NewCommandSync(api commandAPI, registry *slash.Registry, kv state.KV, log *logger.Logger) *CommandSync {
	return &CommandSync{api: api, registry: registry, kv: kv, log: log}
}

// Sync overwrites the commands of appID in guildID (globally when empty).
// It reports whether a request was sent.
func (s *CommandSync) Sync(ctx context.Context, appID, guildID string, force bool) (bool, error) {
	if appID == "" {
		return false, fmt.Errorf("application id is required for command sync")
	}
	defs := s.registry.Definitions()
	hash := hashDefinitions(defs)
	key := state.CommandHashKey(guildID)

	if !force && s.kv != nil {
		stored, ok, err := s.kv.GetString(ctx, key)
		if err != nil {
			s.log.Warn("Failed to read command hash", zap.Error(err))
		} else if ok && stored == hash {
			s.log.Debug("Command definitions unchanged, skipping sync",
				zap.String("guild_id", guildID),
				zap.Int("commands", len(defs)))
			return false, nil
		}
	}

	created, err := s.api.ApplicationCommandBulkOverwrite(appID, guildID, defs, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("overwriting application commands: %w", err)
	}
	s.log.Info("Synced application commands",
		zap.String("guild_id", guildID),
		zap.Int("commands", len(created)))

	if s.kv != nil {
		if err := s.kv.Set(ctx, key, hash); err != nil {
			s.log.Warn("Failed to store command hash", zap.Error(err))
		}
	}
	return true, nil
}

// hashDefinitions hashes the user-visible shape of defs, ignoring order and
// server-assigned fields.
func hashDefinitions(defs []*discordgo.ApplicationCommand) string {
	normalized := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		entry := map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"type":        d.Type,
		}
		if d.DefaultMemberPermissions != nil {
			entry["default_member_permissions"] = *d.DefaultMemberPermissions
		}
		if len(d.Options) > 0 {
			entry["options"] = normalizeOptions(d.Options)
		}
		normalized = append(normalized, entry)
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i]["name"].(string) < normalized[j]["name"].(string)
	})
	data, _ := json.Marshal(normalized)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, c := range o.Choices {
				choices[j] = map[string]any{"name": c.Name, "value": c.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
