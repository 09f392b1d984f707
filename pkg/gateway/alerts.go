package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
	"interbot/pkg/report"
)

const alertColor = 0xd93f0b

type messageAPI interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AlertSink posts failure reports from the bus into an operator channel.
type AlertSink struct {
	api       messageAPI
	channelID string
	log       *logger.Logger
}

// NewAlertSink creates a sink posting to channelID.
func NewAlertSink(api messageAPI, channelID string, log *logger.Logger) *AlertSink {
	return &AlertSink{api: api, channelID: channelID, log: log}
}

// Attach subscribes the sink to failure reports. An empty channel disables it.
func (a *AlertSink) Attach(b bus.Bus) {
	if a.channelID == "" {
		return
	}
	b.Subscribe(bus.TopicFailure, a.Handle)
}

// Handle posts one failure message.
func (a *AlertSink) Handle(ctx context.Context, msg *bus.Message) error {
	var f report.Failure
	if err := msg.Decode(&f); err != nil {
		return err
	}
	if _, err := a.api.ChannelMessageSendEmbed(a.channelID, failureEmbed(f), discordgo.WithContext(ctx)); err != nil {
		a.log.Warn("Failed to post failure alert",
			zap.String("dispatch_id", f.DispatchID),
			zap.Error(err))
		return fmt.Errorf("posting alert: %w", err)
	}
	return nil
}

func failureEmbed(f report.Failure) *discordgo.MessageEmbed {
	title := "Command failed: /" + f.Target()
	if f.Panicked {
		title = "Command panicked: /" + f.Target()
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Dispatch", Value: "`" + f.DispatchID + "`", Inline: true},
		{Name: "Actor", Value: "<@" + f.ActorID + ">", Inline: true},
		{Name: "Host", Value: f.Host, Inline: true},
	}
	if f.GuildID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Guild", Value: f.GuildID, Inline: true})
	}
	desc := "```\n" + clip(f.Error, 1500) + "\n```"
	if f.Stack != "" {
		desc += "\n```\n" + clip(f.Stack, 2000) + "\n```"
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       alertColor,
		Fields:      fields,
		Timestamp:   f.At.UTC().Format(time.RFC3339),
	}
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
