package config

import (
	"path/filepath"
	"time"
)

const (
	KeyLogLevel = "log.level"
	KeyLogJSON  = "log.json"
	KeyLogFile  = "log.file"

	KeyHTTPAddr   = "http.addr"
	KeySocketPath = "socket.path"

	KeyEngineBackend      = "engine.backend"
	KeyEngineMPVPath      = "engine.mpv.path"
	KeyEngineMPVArgs      = "engine.mpv.args"
	KeyEngineStartTimeout = "engine.start-timeout"

	KeyWindowToolkit = "window.toolkit"
	KeyWindowDisplay = "window.display"

	KeyPlayerWidth        = "player.width"
	KeyPlayerHeight       = "player.height"
	KeyPlayerPollInterval = "player.poll-interval"

	KeyEventsBuffer = "events.buffer"

	KeyYouTubeCookiesBrowser = "youtube.cookies-browser"
	KeyYouTubeCookiesFile    = "youtube.cookies-file"
	KeyYouTubeCacheFile      = "youtube.cache-file"
	KeyYouTubeCacheLifetime  = "youtube.cache-lifetime"
)

// Field is one configuration key with its factory default.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Default lists every recognised key.
var Default = []Field{
	{KeyLogLevel, "info", "Minimum log level (trace, debug, info, warn, error)"},
	{KeyLogJSON, false, "Emit log records as JSON"},
	{KeyLogFile, "", "Append logs to this file instead of stderr"},
	{KeyHTTPAddr, ":8180", "Listen address of the HTTP control API"},
	{KeySocketPath, "/tmp/video-overlay.sock", "Path of the JSON-lines control socket"},
	{KeyEngineBackend, "mpv", "Media engine backend"},
	{KeyEngineMPVPath, "mpv", "mpv executable"},
	{KeyEngineMPVArgs, []string{}, "Extra arguments passed to every mpv instance"},
	{KeyEngineStartTimeout, 5 * time.Second, "Upper bound for building or stopping a pipeline"},
	{KeyWindowToolkit, "detached", "Window toolkit (detached, x11)"},
	{KeyWindowDisplay, "", "X11 display, empty for $DISPLAY"},
	{KeyPlayerWidth, 404.0, "Render surface width a player window opens with"},
	{KeyPlayerHeight, 324.0, "Render surface height a player window opens with"},
	{KeyPlayerPollInterval, 500 * time.Millisecond, "How often open players are polled for errors and end of stream, 0 to leave polling to clients"},
	{KeyEventsBuffer, 8, "Buffered outward events per subscriber before messages are dropped"},
	{KeyYouTubeCookiesBrowser, "", "Browser yt-dlp reads cookies from"},
	{KeyYouTubeCookiesFile, "", "cookies.txt passed to yt-dlp"},
	{KeyYouTubeCacheFile, filepath.Join(CacheDir(), "youtube.json"), "Where resolved stream URLs are cached, empty to disable"},
	{KeyYouTubeCacheLifetime, time.Hour, "How long resolved stream URLs are reused"},
}
