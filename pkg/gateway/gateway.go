// Package gateway connects the dispatcher to Discord: it turns interactions
// into events, answers them through the REST API and keeps the application's
// command definitions in sync.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/workers"
)

// Dispatcher runs one event. *slash.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *slash.Event) slash.Outcome
}

// Submitter queues work. *workers.Pool satisfies it.
type Submitter interface {
	Submit(task workers.Task) error
}

// Gateway owns the Discord session lifecycle and feeds interactions to the
// dispatcher through the worker pool.
type Gateway struct {
	session    *discordgo.Session
	cfg        config.DiscordConfig
	dispatcher Dispatcher
	pool       Submitter
	translator slash.Translator
	sync       *CommandSync
	log        *logger.Logger
	baseCtx    context.Context
}

// New creates a Gateway.
func New(
	session *discordgo.Session,
	cfg config.DiscordConfig,
	dispatcher Dispatcher,
	pool Submitter,
	translator slash.Translator,
	sync *CommandSync,
	log *logger.Logger,
) *Gateway {
	return &Gateway{
		session:    session,
		cfg:        cfg,
		dispatcher: dispatcher,
		pool:       pool,
		translator: translator,
		sync:       sync,
		log:        log,
		baseCtx:    context.Background(),
	}
}

// NewSession creates an unopened bot session.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

// Start opens the websocket and syncs command definitions.
func (g *Gateway) Start(ctx context.Context) error {
	g.log.Info("Starting Discord gateway")

	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onInteraction)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}

	if g.cfg.SyncCommands {
		if _, err := g.sync.Sync(ctx, g.cfg.ApplicationID, g.cfg.DevGuildID, false); err != nil {
			g.log.Error("Command sync failed", zap.Error(err))
		}
	}
	return nil
}

// Stop closes the websocket. In-flight dispatches are drained by the pool.
func (g *Gateway) Stop(ctx context.Context) error {
	g.log.Info("Stopping Discord gateway")
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.log.Info("Discord bot connected",
		zap.String("username", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int("guilds", len(r.Guilds)))

	if g.cfg.Activity != "" {
		if err := s.UpdateGameStatus(0, g.cfg.Activity); err != nil {
			g.log.Warn("Failed to set activity", zap.Error(err))
		}
	}
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	g.handle(i, newResponder(s, i.Interaction))
}

// handle queues one interaction. When the pool refuses it the actor gets an
// ephemeral busy notice instead of a timed-out interaction.
func (g *Gateway) handle(i *discordgo.InteractionCreate, responder slash.Responder) {
	ev, ok := EventFromInteraction(i)
	if !ok {
		return
	}
	ev.Responder = responder

	err := g.pool.Submit(func() {
		g.dispatcher.Dispatch(g.baseCtx, ev)
	})
	if err == nil {
		return
	}

	level := g.log.Warn
	if errors.Is(err, workers.ErrPoolClosed) {
		level = g.log.Debug
	}
	level("Interaction rejected",
		zap.String("command", ev.Command),
		zap.String("user_id", ev.ActorID),
		zap.Error(err))

	busy := g.translator.Translate("gateway.busy", ev.Locale)
	if rerr := responder.Reply(g.baseCtx, slash.Response{Content: busy, Ephemeral: true}); rerr != nil {
		g.log.Debug("Failed to send busy notice", zap.Error(rerr))
	}
}
