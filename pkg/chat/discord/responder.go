package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/txn2/dbsandbot/pkg/chat"
)

// responder binds chat.Responder to one interaction. Reply and
// Ephemeral create the initial response; Edit rewrites it; Followup
// posts an additional message.
type responder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

var _ chat.Responder = (*responder)(nil)

func (r *responder) Reply(ctx context.Context, msg chat.Message) error {
	return r.respond(ctx, msg, 0)
}

func (r *responder) Ephemeral(ctx context.Context, msg chat.Message) error {
	return r.respond(ctx, msg, discordgo.MessageFlagsEphemeral)
}

func (r *responder) respond(ctx context.Context, msg chat.Message, flags discordgo.MessageFlags) error {
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{toEmbed(msg)},
			Files:  toFiles(msg.Files),
			Flags:  flags,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("responding to interaction: %w", err)
	}
	return nil
}

func (r *responder) Edit(ctx context.Context, msg chat.Message) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(msg)}
	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("editing interaction response: %w", err)
	}
	return nil
}

func (r *responder) Followup(ctx context.Context, msg chat.Message) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{toEmbed(msg)},
		Files:  toFiles(msg.Files),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating followup message: %w", err)
	}
	return nil
}
