// Package discord adapts the chat capability interfaces to Discord
// via discordgo. Everything Discord-specific lives here; the rest of
// the codebase talks to chat.Client and chat.Responder.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/txn2/dbsandbot/pkg/chat"
)

// threadAutoArchiveMinutes is Discord's maximum thread auto-archive
// window. The registry's TTL, not Discord, decides when a session ends.
const threadAutoArchiveMinutes = 10080

// Client implements chat.Client over a discordgo session.
type Client struct {
	Session *discordgo.Session
}

var _ chat.Client = (*Client)(nil)

func (c *Client) Send(ctx context.Context, channelID string, msg chat.Message) (string, error) {
	sent, err := c.Session.ChannelMessageSendComplex(channelID, messageSend(msg, ""), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("sending message to %s: %w", channelID, err)
	}
	return sent.ID, nil
}

func (c *Client) Reply(ctx context.Context, channelID, replyToID string, msg chat.Message) (string, error) {
	sent, err := c.Session.ChannelMessageSendComplex(channelID, messageSend(msg, replyToID), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("replying in %s: %w", channelID, err)
	}
	return sent.ID, nil
}

func (c *Client) Edit(ctx context.Context, channelID, messageID string, msg chat.Message) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Embeds = &[]*discordgo.MessageEmbed{toEmbed(msg)}
	if _, err := c.Session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("editing message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) CreateChannel(ctx context.Context, guildID, name, categoryID string) (string, error) {
	ch, err := c.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("creating channel in guild %s: %w", guildID, err)
	}
	return ch.ID, nil
}

func (c *Client) CreateThread(ctx context.Context, channelID, messageID, name string) (string, error) {
	th, err := c.Session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("starting thread on message %s: %w", messageID, err)
	}
	return th.ID, nil
}

func (c *Client) MoveChannel(ctx context.Context, channelID, categoryID string) error {
	_, err := c.Session.ChannelEdit(channelID, &discordgo.ChannelEdit{
		ParentID: categoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("moving channel %s: %w", channelID, err)
	}
	return nil
}

func (c *Client) GuildOf(ctx context.Context, channelID string) (string, error) {
	if ch, err := c.Session.State.Channel(channelID); err == nil {
		return ch.GuildID, nil
	}
	ch, err := c.Session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolving channel %s: %w", channelID, err)
	}
	return ch.GuildID, nil
}

func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := c.Session.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading attachment: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading attachment body: %w", err)
	}
	return data, nil
}

func messageSend(msg chat.Message, replyToID string) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{toEmbed(msg)},
		Files:  toFiles(msg.Files),
	}
	if replyToID != "" {
		send.Reference = &discordgo.MessageReference{MessageID: replyToID}
	}
	return send
}

// toEmbed renders a platform-neutral message as a Discord embed. A
// code block is appended to the body inside a fenced region tagged
// with its language.
func toEmbed(msg chat.Message) *discordgo.MessageEmbed {
	desc := msg.Body
	if msg.Code != "" {
		if desc != "" {
			desc += "\n"
		}
		desc += fmt.Sprintf("```%s\n%s\n```", msg.Lang, msg.Code)
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: desc,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}

func toFiles(files []chat.File) []*discordgo.File {
	out := make([]*discordgo.File, 0, len(files))
	for _, f := range files {
		out = append(out, &discordgo.File{
			Name:   f.Name,
			Reader: bytes.NewReader(f.Data),
		})
	}
	return out
}
