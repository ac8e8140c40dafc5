package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const (
	embedTitle = "✨ New Profile Found!"
	embedColor = 0x00AE86
)

// Sink delivers one embed to the notification channel.
type Sink interface {
	Deliver(ctx context.Context, embed *discordgo.MessageEmbed) error
}

// dispatcher turns resolved owners into embeds and hands each one to the sink once.
type dispatcher struct {
	sink Sink
	now  func() time.Time
	log  zerolog.Logger
}

func newDispatcher(sink Sink, log zerolog.Logger) *dispatcher {
	return &dispatcher{sink: sink, now: time.Now, log: log}
}

// Send reports whether the sink accepted the notification. It never retries.
func (d *dispatcher) Send(ctx context.Context, owner ResolvedOwner) bool {
	d.log.Info().Str("username", owner.Username).Msg("sending notification")
	if err := d.sink.Deliver(ctx, buildEmbed(owner, d.now())); err != nil {
		d.log.Error().Err(err).Str("username", owner.Username).Msg("notification failed")
		return false
	}
	d.log.Info().Str("username", owner.Username).Msg("notification sent")
	return true
}

func buildEmbed(owner ResolvedOwner, now time.Time) *discordgo.MessageEmbed {
	handle := owner.ExternalHandle
	if handle == "" {
		handle = " "
	}
	embed := &discordgo.MessageEmbed{
		Title: embedTitle,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Discord Username", Value: handle},
			{Name: "Roblox Username", Value: owner.Username, Inline: true},
			{Name: "Rolimons Profile", Value: fmt.Sprintf("[View Profile](%s)", owner.ProfileURL)},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if owner.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: owner.AvatarURL}
	}
	return embed
}

type webhookPayload struct {
	Embeds []*discordgo.MessageEmbed `json:"embeds"`
}

// webhookSink posts embeds to an incoming webhook URL with the client's default behaviour.
type webhookSink struct {
	url    string
	client *http.Client
}

func newWebhookSink(url string) *webhookSink {
	return &webhookSink{url: url, client: &http.Client{}}
}

func (w *webhookSink) Deliver(ctx context.Context, embed *discordgo.MessageEmbed) error {
	body, err := json.Marshal(webhookPayload{Embeds: []*discordgo.MessageEmbed{embed}})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook post: status %d: %s", resp.StatusCode, truncate(string(snippet), 200))
	}
	return nil
}
