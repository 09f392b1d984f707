package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"interbot/pkg/slash"
)

// maxContentLength is Discord's message content limit.
const maxContentLength = 2000

type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// interactionResponder answers one interaction through the REST API.
type interactionResponder struct {
	api         interactionAPI
	interaction *discordgo.Interaction
}

func newResponder(api interactionAPI, interaction *discordgo.Interaction) slash.Responder {
	return &interactionResponder{api: api, interaction: interaction}
}

func (r *interactionResponder) Reply(ctx context.Context, resp slash.Response) error {
	return r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: truncate(resp.Content),
			Flags:   flags(resp.Ephemeral),
		},
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	return r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) FollowUp(ctx context.Context, resp slash.Response) error {
	_, err := r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: truncate(resp.Content),
		Flags:   flags(resp.Ephemeral),
	}, discordgo.WithContext(ctx))
	return err
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentLength {
		return content
	}
	return string(runes[:maxContentLength-1]) + "…"
}
