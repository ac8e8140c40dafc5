package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBuildEmbed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	owner := ResolvedOwner{Username: "carol", ProfileURL: playerURL("carol"), AvatarURL: avatarURL("carol")}

	e := buildEmbed(owner, now)
	if e.Title != embedTitle || e.Color != embedColor {
		t.Fatalf("title/color = %q/%#x", e.Title, e.Color)
	}
	if e.Timestamp != "2024-05-01T12:30:00Z" {
		t.Fatalf("timestamp = %q", e.Timestamp)
	}
	if len(e.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(e.Fields))
	}
	if e.Fields[0].Value != " " {
		t.Fatalf("external handle placeholder = %q, want a single space", e.Fields[0].Value)
	}
	if e.Fields[1].Value != "carol" || !e.Fields[1].Inline {
		t.Fatalf("username field = %+v", e.Fields[1])
	}
	if want := "[View Profile](" + playerURL("carol") + ")"; e.Fields[2].Value != want {
		t.Fatalf("profile field = %q, want %q", e.Fields[2].Value, want)
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != avatarURL("carol") {
		t.Fatalf("thumbnail = %+v", e.Thumbnail)
	}

	owner.AvatarURL = ""
	if e := buildEmbed(owner, now); e.Thumbnail != nil {
		t.Fatalf("thumbnail without avatar = %+v", e.Thumbnail)
	}
}

func TestWebhookSinkPayload(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := newDispatcher(newWebhookSink(srv.URL), zerolog.Nop())
	if ok := d.Send(context.Background(), ResolvedOwner{Username: "alice", ProfileURL: playerURL("alice")}); !ok {
		t.Fatalf("Send = false")
	}

	var got map[string]any
	if err := json.Unmarshal(<-bodies, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	embeds, _ := got["embeds"].([]any)
	if len(embeds) != 1 {
		t.Fatalf("embeds = %v", got["embeds"])
	}
	embed := embeds[0].(map[string]any)
	if _, has := embed["thumbnail"]; has {
		t.Fatalf("thumbnail present without avatar: %v", embed)
	}
	raw, _ := json.Marshal(embed)
	for _, want := range []string{`"alice"`, playerURL("alice"), `"timestamp"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("payload %s missing %s", raw, want)
		}
	}
}

func TestWebhookSinkRejectsErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := newDispatcher(newWebhookSink(srv.URL), zerolog.Nop())
	if ok := d.Send(context.Background(), ResolvedOwner{Username: "alice"}); ok {
		t.Fatalf("Send = true on 429")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("sink called %d times, want exactly 1", n)
	}
}

func TestDispatcherReportsSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("boom")}
	d := newDispatcher(sink, zerolog.Nop())
	if d.Send(context.Background(), ResolvedOwner{Username: "x"}) {
		t.Fatalf("Send = true with failing sink")
	}
	if len(sink.embeds) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(sink.embeds))
	}
}
