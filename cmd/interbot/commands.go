package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"interbot/pkg/config"
	"interbot/pkg/gateway"
	"interbot/pkg/slash"
)

var (
	syncGuild  string
	syncGlobal bool
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Inspect and sync registered slash commands",
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List commands registered under the configured namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		var registry *slash.Registry
		app := fx.New(append(coreModules(), fx.NopLogger, fx.Populate(&registry))...)
		if err := app.Err(); err != nil {
			return fmt.Errorf("building registry: %w", err)
		}
		return printDefinitions(cmd.OutOrStdout(), registry.Namespace(), registry.Definitions())
	},
}

var commandsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Overwrite the application's commands with the registered set",
	Long: `Push the registered command definitions to Discord.

Without flags the configured dev guild is used, falling back to global
registration when none is set.

Examples:
  interbot commands sync
  interbot commands sync --guild 123456789012345678
  interbot commands sync --global`,
	RunE: runCommandsSync,
}

func init() {
	commandsSyncCmd.Flags().StringVar(&syncGuild, "guild", "", "sync to this guild only")
	commandsSyncCmd.Flags().BoolVar(&syncGlobal, "global", false, "sync globally even if a dev guild is configured")
	commandsCmd.AddCommand(commandsListCmd)
	commandsCmd.AddCommand(commandsSyncCmd)
	rootCmd.AddCommand(commandsCmd)
}

func runCommandsSync(cmd *cobra.Command, args []string) error {
	var (
		cfg  *config.Config
		sync *gateway.CommandSync
	)
	app := fx.New(append(coreModules(), fx.NopLogger, fx.Populate(&cfg, &sync))...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("building app: %w", err)
	}

	guildID := syncTarget(cfg.Discord, syncGuild, syncGlobal)
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if _, err := sync.Sync(ctx, cfg.Discord.ApplicationID, guildID, true); err != nil {
		return err
	}
	if guildID == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Synced commands globally (may take up to an hour to appear)")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Synced commands to guild %s\n", guildID)
	}
	return nil
}

// syncTarget picks the guild to sync. An empty result means global.
func syncTarget(cfg config.DiscordConfig, guild string, global bool) string {
	switch {
	case global:
		return ""
	case guild != "":
		return guild
	default:
		return cfg.DevGuildID
	}
}

func printDefinitions(out io.Writer, namespace string, defs []*discordgo.ApplicationCommand) error {
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Namespace: %s\n\n", namespace)
	if len(defs) == 0 {
		fmt.Fprintln(out, "No commands registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tDESCRIPTION")
	for _, def := range defs {
		fmt.Fprintf(w, "/%s\t%s\n", def.Name, def.Description)
		for _, path := range subcommandPaths(def.Name, def.Options) {
			fmt.Fprintf(w, "  /%s\t%s\n", path[0], path[1])
		}
	}
	return w.Flush()
}

// subcommandPaths flattens groups and subcommands into "name group sub"
// paths paired with their descriptions.
func subcommandPaths(prefix string, opts []*discordgo.ApplicationCommandOption) [][2]string {
	var out [][2]string
	for _, opt := range opts {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			out = append(out, subcommandPaths(prefix+" "+opt.Name, opt.Options)...)
		case discordgo.ApplicationCommandOptionSubCommand:
			out = append(out, [2]string{prefix + " " + opt.Name, opt.Description})
		}
	}
	return out
}
