// Package mirror copies published posts into a Discord channel.
package mirror

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Sender is the slice of the discordgo session the mirror uses.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord mirrors posts over the Discord REST API. No gateway connection is opened.
type Discord struct {
	sender    Sender
	channelID string
	log       zerolog.Logger
}

// NewDiscord creates a bot session for token.
func NewDiscord(token, channelID string, logger zerolog.Logger) (*Discord, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewWithSender(dg, channelID, logger), nil
}

// NewWithSender wraps an existing sender.
func NewWithSender(sender Sender, channelID string, logger zerolog.Logger) *Discord {
	return &Discord{
		sender:    sender,
		channelID: channelID,
		log:       logger.With().Str("component", "mirror").Str("channel_id", channelID).Logger(),
	}
}

// Notify sends content to the channel. Errors are logged and dropped.
func (d *Discord) Notify(ctx context.Context, content string) {
	if d == nil || d.sender == nil {
		return
	}
	if _, err := d.sender.ChannelMessageSend(d.channelID, content, discordgo.WithContext(ctx)); err != nil {
		d.log.Warn().Err(err).Msg("failed to mirror post")
		return
	}
	d.log.Debug().Msg("post mirrored")
}
