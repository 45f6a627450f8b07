package deps

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestCheckAll(t *testing.T) {
	c := NewChecker(Default("")...)
	c.lookPath = fakeLookPath("mpv")

	if err := c.CheckAll(); err != nil {
		t.Errorf("optional yt-dlp must not fail the check: %v", err)
	}

	c.lookPath = fakeLookPath("yt-dlp")
	err := c.CheckAll()
	var missing *MissingDepsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDepsError, got %v", err)
	}
	if len(missing.Dependencies) != 1 || missing.Dependencies[0] != "mpv" {
		t.Errorf("unexpected missing list %v", missing.Dependencies)
	}
}

func TestCheckAndPrint(t *testing.T) {
	c := NewChecker(Default("/opt/mpv/bin/mpv")...)
	c.lookPath = fakeLookPath()

	var buf bytes.Buffer
	err := c.CheckAndPrint(&buf)
	if err == nil {
		t.Fatal("expected error")
	}
	out := buf.String()
	if !strings.Contains(out, "[ERROR] '/opt/mpv/bin/mpv'") {
		t.Errorf("missing error line in %q", out)
	}
	if !strings.Contains(out, "[WARN] 'yt-dlp'") {
		t.Errorf("missing warning line in %q", out)
	}
	if c.IsAvailable("mpv") {
		t.Error("expected mpv unavailable")
	}
}
