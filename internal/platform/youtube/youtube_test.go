package youtube

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestCanHandle(t *testing.T) {
	r := New(Config{})

	tests := []struct {
		locator string
		want    bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", true},
		{"https://example.com/video.webm", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			if got := r.CanHandle(tt.locator); got != tt.want {
				t.Errorf("CanHandle(%q) = %v, want %v", tt.locator, got, tt.want)
			}
		})
	}
}

func TestNormalizeYouTubeURL(t *testing.T) {
	if got := normalizeYouTubeURL(" dQw4w9WgXcQ "); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected normalized url %s", got)
	}
}

func TestFirstURL(t *testing.T) {
	out := "https://rr1.example/audio?mime=audio%2Fwebm\nhttps://rr1.example/video?mime=video%2Fmp4\n"
	got, err := firstURL(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://rr1.example/video?mime=video%2Fmp4" {
		t.Errorf("expected video line, got %s", got)
	}

	if _, err := firstURL("  \n"); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestBaseArgs_Cookies(t *testing.T) {
	r := New(Config{CookiesFromBrowser: "firefox", CookiesFile: "/tmp/c.txt"})
	args := r.baseArgs()
	tail := args[len(args)-2:]
	if !reflect.DeepEqual(tail, []string{"--cookies-from-browser", "firefox"}) {
		t.Errorf("expected browser cookies to win, got %v", tail)
	}
}

func TestStreamCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := newStreamCache(fs, "/cache/youtube.json", time.Hour)

	if c.get("https://www.youtube.com/watch?v=dQw4w9WgXcQ").IsPresent() {
		t.Fatal("expected empty cache")
	}
	if err := c.set("https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://rr1.example/video"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.get("https://www.youtube.com/watch?v=dQw4w9WgXcQ").Get()
	if !ok || got != "https://rr1.example/video" {
		t.Errorf("expected cached url, got %q (%v)", got, ok)
	}
	if exists, _ := afero.Exists(fs, "/cache/youtube.json"); !exists {
		t.Error("expected cache file to be written")
	}
}

func TestResolve_FromCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := New(Config{CacheFile: "/cache/youtube.json", Fs: fs})
	// yt-dlp must not be reached for a cached page.
	r.binary = "/nonexistent/yt-dlp"

	cache, _ := r.cache.Get()
	if err := cache.set("https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://rr1.example/video"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := r.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://rr1.example/video" {
		t.Errorf("expected cached url, got %s", got)
	}
}
