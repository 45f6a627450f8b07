package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"

	"video-overlay/internal/log"
)

// Config holds yt-dlp authentication settings.
type Config struct {
	// CookiesFromBrowser extracts cookies from browser (e.g., "firefox", "chrome", "safari")
	CookiesFromBrowser string
	// CookiesFile path to cookies.txt file (alternative to browser cookies)
	CookiesFile string
	// CacheFile, when set, persists resolved stream URLs for CacheLifetime.
	CacheFile     string
	CacheLifetime time.Duration
	// Fs backs the cache file. Nil means the OS filesystem.
	Fs afero.Fs
}

// Resolver implements platform.Resolver for YouTube pages and bare video ids.
type Resolver struct {
	config Config
	// binary is the yt-dlp executable.
	binary string
	cache  mo.Option[*streamCache]
}

// New creates a YouTube resolver.
func New(config Config) *Resolver {
	r := &Resolver{config: config, binary: "yt-dlp", cache: mo.None[*streamCache]()}
	if config.CacheFile != "" {
		fs := config.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		r.cache = mo.Some(newStreamCache(fs, config.CacheFile, config.CacheLifetime))
	}
	return r
}

// Name returns the platform name.
func (r *Resolver) Name() string {
	return "youtube"
}

// CanHandle returns true if the locator is a YouTube URL or video id.
func (r *Resolver) CanHandle(locator string) bool {
	trimmed := strings.TrimSpace(locator)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "youtube.com") || strings.Contains(trimmed, "youtu.be") {
		return true
	}
	return isYouTubeID(trimmed)
}

// Resolve extracts a direct stream URL carrying both audio and video.
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	locator = normalizeYouTubeURL(locator)
	if cache, ok := r.cache.Get(); ok {
		if url, ok := cache.get(locator).Get(); ok {
			return url, nil
		}
	}

	url, err := r.extract(ctx, locator)
	if err != nil {
		return "", err
	}
	if cache, ok := r.cache.Get(); ok {
		if err := cache.set(locator, url); err != nil {
			log.WithComponent("youtube").WithError(err).Warn("cache stream url")
		}
	}
	return url, nil
}

func (r *Resolver) extract(ctx context.Context, locator string) (string, error) {
	args := r.baseArgs()

	// Progressive formats first so the engine gets a single muxed URL.
	primary := append(append([]string{}, args...), "-f", "best[vcodec!=none][acodec!=none]/best", "--get-url", locator)
	url, err := r.getURL(ctx, primary)
	if err == nil {
		return url, nil
	}

	fallback := append(append([]string{}, args...), "--get-url", locator)
	return r.getURL(ctx, fallback)
}

// Metadata holds the JSON output from yt-dlp.
type Metadata struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// Metadata fetches the video title and duration without downloading.
func (r *Resolver) Metadata(ctx context.Context, locator string) (*Metadata, error) {
	locator = normalizeYouTubeURL(locator)
	args := append(r.baseArgs(), "-j", "--skip-download", locator)

	out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

func (r *Resolver) baseArgs() []string {
	args := []string{
		"--ignore-config",
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", "10",
	}
	if r.config.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", r.config.CookiesFromBrowser)
	} else if r.config.CookiesFile != "" {
		args = append(args, "--cookies", r.config.CookiesFile)
	}
	return args
}

func (r *Resolver) getURL(ctx context.Context, args []string) (string, error) {
	out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return firstURL(string(out))
}

// firstURL picks the stream from yt-dlp --get-url output, preferring a line that
// carries video when separate audio and video URLs are printed.
func firstURL(out string) (string, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return "", fmt.Errorf("yt-dlp returned empty URL")
	}
	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		if strings.Contains(line, "mime=video") || strings.Contains(line, "video/") {
			return strings.TrimSpace(line), nil
		}
	}
	return strings.TrimSpace(lines[0]), nil
}

func isYouTubeID(value string) bool {
	if len(value) != 11 {
		return false
	}
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

func normalizeYouTubeURL(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if strings.Contains(trimmed, "youtube.com") || strings.Contains(trimmed, "youtu.be") {
		return trimmed
	}
	if isYouTubeID(trimmed) {
		return "https://www.youtube.com/watch?v=" + trimmed
	}
	return trimmed
}
