package router

import (
	"context"
	"errors"
	"testing"

	"video-overlay/internal/engine"
	"video-overlay/internal/engine/enginetest"
	"video-overlay/internal/events"
	"video-overlay/internal/player"
	"video-overlay/internal/registry"
	"video-overlay/internal/window/windowtest"
)

func setupRouter() (*Router, *windowtest.Toolkit, *enginetest.Engine) {
	tk := windowtest.New()
	eng := enginetest.New()
	return New(player.Deps{Toolkit: tk, Engine: eng}), tk, eng
}

func TestOpen_EmptyURL(t *testing.T) {
	r, tk, _ := setupRouter()

	id, err := r.Open(context.Background(), "  ")
	if err != nil || id != "" {
		t.Fatalf("expected silent no-op, got %q, %v", id, err)
	}
	if tk.Created() != 0 || len(r.IDs()) != 0 {
		t.Error("empty url must not create a player")
	}
}

func TestOpen_KeepsURLAsGiven(t *testing.T) {
	r, tk, _ := setupRouter()
	url := " file:///tmp/clip.webm "

	id, err := r.Open(context.Background(), url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != player.ID(url) || id != "player-file_tmp_clip_webm_" {
		t.Errorf("expected id derived from the untrimmed url, got %q", id)
	}
	st, ok := r.Status(id)
	if !ok || st.URL != url {
		t.Errorf("expected stored url %q, got %q (%v)", url, st.URL, ok)
	}
	if tk.Last().Opts.Title != url {
		t.Errorf("expected window title %q, got %q", url, tk.Last().Opts.Title)
	}
}

func TestOpen_Duplicate(t *testing.T) {
	r, tk, _ := setupRouter()
	ctx := context.Background()

	id, err := r.Open(ctx, "https://example.com/clip.webm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != player.ID("https://example.com/clip.webm") {
		t.Errorf("unexpected id %s", id)
	}

	_, err = r.Open(ctx, "https://example.com/clip.webm")
	if !errors.Is(err, registry.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if len(r.IDs()) != 1 || tk.Created() != 1 {
		t.Errorf("duplicate open changed state: ids=%v windows=%d", r.IDs(), tk.Created())
	}
}

func TestDispatch_UnknownPlayer(t *testing.T) {
	r, _, _ := setupRouter()
	sub := r.Subscribe("player-ghost", 1)
	defer sub.Cancel()

	_, found := r.Dispatch(context.Background(), "player-ghost", player.EventPoll, nil)
	if found {
		t.Error("expected unknown player to be reported as not found")
	}
	if len(sub.C) != 0 {
		t.Error("expected no outward message")
	}
}

func TestDispatch_ErrorClosesAndNotifies(t *testing.T) {
	r, _, eng := setupRouter()
	ctx := context.Background()

	id, err := r.Open(ctx, "file:///tmp/clip.webm")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sub := r.Subscribe(id, 2)
	defer sub.Cancel()

	if out, _ := r.Dispatch(ctx, id, player.EventReady, nil); out.Kind != player.Continue {
		t.Fatalf("ready: %+v", out)
	}
	eng.Last().Post(engine.Message{Type: engine.MessageError, Source: "decoder", Err: errors.New("boom")})
	r.Dispatch(ctx, id, player.EventPoll, nil)

	msg := <-sub.C
	if msg.Event != events.Closed || msg.Data != nil {
		t.Errorf("unexpected outward message %+v", msg)
	}
	st, ok := r.Status(id)
	if !ok || st.HasPipeline || st.State != "stopped" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestCloseAll(t *testing.T) {
	r, _, _ := setupRouter()
	ctx := context.Background()

	for _, url := range []string{"file:///tmp/a.webm", "file:///tmp/b.webm"} {
		if _, err := r.Open(ctx, url); err != nil {
			t.Fatalf("open %s: %v", url, err)
		}
	}
	if n := r.CloseAll(ctx); n != 2 {
		t.Errorf("expected 2 closed, got %d", n)
	}
	if len(r.Statuses()) != 0 {
		t.Error("expected empty registry")
	}
}
