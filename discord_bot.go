package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// botSink posts embeds to one channel through a bot account.
type botSink struct {
	dg        *discordgo.Session
	channelID string
	log       zerolog.Logger
}

// newBotSink opens the bot gateway session. The caller closes it with Close.
func newBotSink(token, channelID string, log zerolog.Logger) (*botSink, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().
			Str("user", r.User.Username).
			Str("channel", channelID).
			Msg("discord bot connected")
	})
	dg.Identify.Intents = discordgo.IntentsGuilds

	if err := openGateway(dg); err != nil {
		return nil, err
	}
	return &botSink{dg: dg, channelID: channelID, log: log}, nil
}

type gateway interface {
	Open() error
	Close() error
}

// openGateway opens g and releases it again when the handshake fails.
func openGateway(g gateway) error {
	if err := g.Open(); err != nil {
		g.Close()
		return fmt.Errorf("opening discord connection: %w", err)
	}
	return nil
}

func (b *botSink) Deliver(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if _, err := b.dg.ChannelMessageSendEmbed(b.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("channel send: %w", err)
	}
	return nil
}

func (b *botSink) Close() error {
	b.log.Info().Msg("closing discord connection")
	return b.dg.Close()
}
