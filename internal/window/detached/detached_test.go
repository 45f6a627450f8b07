package detached

import (
	"testing"
	"time"

	"video-overlay/internal/window"
)

func TestCreate(t *testing.T) {
	type event struct{ label, name string }
	got := make(chan event, 1)
	tk := New(func(label, name string, payload any) {
		got <- event{label, name}
	})

	w, err := tk.Create(window.Options{Label: "player-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, err := w.Handle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != (window.UnsupportedHandle{Kind: Kind}) {
		t.Errorf("unexpected handle %#v", h)
	}

	select {
	case ev := <-got:
		if ev.label != "player-a" || ev.name != "ready" {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("ready was not delivered")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !w.(*Window).Closed() {
		t.Error("expected window closed")
	}
}

func TestCreateWithoutListener(t *testing.T) {
	w, err := New(nil).Create(window.Options{Label: "player-b"})
	if err != nil || w.Label() != "player-b" {
		t.Fatalf("unexpected result %v, %v", w, err)
	}
}
