package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/etc/video-overlay")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":8180" {
		t.Errorf("expected default addr :8180, got %s", cfg.HTTP.Addr)
	}
	if cfg.Player.Width != 404 || cfg.Player.Height != 324 {
		t.Errorf("expected 404x324, got %vx%v", cfg.Player.Width, cfg.Player.Height)
	}
	if cfg.Engine.StartTimeout != 5*time.Second {
		t.Errorf("expected 5s start timeout, got %v", cfg.Engine.StartTimeout)
	}
	if cfg.Player.PollInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms poll interval, got %v", cfg.Player.PollInterval)
	}
	if cfg.Window.Toolkit != "detached" {
		t.Errorf("expected detached toolkit, got %s", cfg.Window.Toolkit)
	}
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := `
[http]
addr = "127.0.0.1:9000"

[player]
width = 640.0
height = 480.0

[engine]
backend = "mpv"
start-timeout = "2s"
`
	if err := afero.WriteFile(fs, "/cfg/config.toml", []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs, "/cfg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("expected file addr, got %s", cfg.HTTP.Addr)
	}
	if cfg.Player.Width != 640 || cfg.Player.Height != 480 {
		t.Errorf("expected 640x480, got %vx%v", cfg.Player.Width, cfg.Player.Height)
	}
	if cfg.Engine.StartTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.Engine.StartTimeout)
	}
	if cfg.Socket.Path != "/tmp/video-overlay.sock" {
		t.Errorf("expected default socket path to survive, got %s", cfg.Socket.Path)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("VIDEO_OVERLAY_SOCKET_PATH", "/run/overlay.sock")

	cfg, err := Load(afero.NewMemMapFs(), "/nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Socket.Path != "/run/overlay.sock" {
		t.Errorf("expected env override, got %s", cfg.Socket.Path)
	}
}
