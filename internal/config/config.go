// Package config loads daemon settings through viper, backed by an afero filesystem.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppName prefixes environment variables and names the config directory.
const AppName = "video-overlay"

// EnvKeyReplacer maps dotted keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Config is a typed snapshot of the loaded settings.
type Config struct {
	Log     LogConfig
	HTTP    HTTPConfig
	Socket  SocketConfig
	Engine  EngineConfig
	Window  WindowConfig
	Player  PlayerConfig
	Events  EventsConfig
	YouTube YouTubeConfig
}

type LogConfig struct {
	Level string
	JSON  bool
	File  string
}

type HTTPConfig struct {
	Addr string
}

type SocketConfig struct {
	Path string
}

type EngineConfig struct {
	Backend      string
	MPVPath      string
	MPVArgs      []string
	StartTimeout time.Duration
}

type WindowConfig struct {
	Toolkit string
	Display string
}

// PlayerConfig holds the render-surface size a player is fixed to when its window
// opens and the poll cadence.
type PlayerConfig struct {
	Width        float64
	Height       float64
	PollInterval time.Duration
}

type EventsConfig struct {
	Buffer int
}

type YouTubeConfig struct {
	CookiesBrowser string
	CookiesFile    string
	CacheFile      string
	CacheLifetime  time.Duration
}

// Dir returns the default configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(base, AppName)
}

// CacheDir returns the directory for cached lookups.
func CacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName, "cache")
	}
	return filepath.Join(base, AppName)
}

// Setup registers defaults and env bindings on v and reads config.toml from dir if present.
func Setup(v *viper.Viper, fs afero.Fs, dir string) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.SetFs(fs)
	if dir == "" {
		dir = Dir()
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix(strings.ReplaceAll(AppName, "-", "_"))
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	v.SetTypeByDefaultValue(true)
	for _, f := range Default {
		v.SetDefault(f.Key, f.Value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// FromViper builds a Config snapshot from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
			JSON:  v.GetBool(KeyLogJSON),
			File:  v.GetString(KeyLogFile),
		},
		HTTP:   HTTPConfig{Addr: v.GetString(KeyHTTPAddr)},
		Socket: SocketConfig{Path: v.GetString(KeySocketPath)},
		Engine: EngineConfig{
			Backend:      v.GetString(KeyEngineBackend),
			MPVPath:      v.GetString(KeyEngineMPVPath),
			MPVArgs:      v.GetStringSlice(KeyEngineMPVArgs),
			StartTimeout: v.GetDuration(KeyEngineStartTimeout),
		},
		Window: WindowConfig{
			Toolkit: v.GetString(KeyWindowToolkit),
			Display: v.GetString(KeyWindowDisplay),
		},
		Player: PlayerConfig{
			Width:        v.GetFloat64(KeyPlayerWidth),
			Height:       v.GetFloat64(KeyPlayerHeight),
			PollInterval: v.GetDuration(KeyPlayerPollInterval),
		},
		Events: EventsConfig{Buffer: v.GetInt(KeyEventsBuffer)},
		YouTube: YouTubeConfig{
			CookiesBrowser: v.GetString(KeyYouTubeCookiesBrowser),
			CookiesFile:    v.GetString(KeyYouTubeCookiesFile),
			CacheFile:      v.GetString(KeyYouTubeCacheFile),
			CacheLifetime:  v.GetDuration(KeyYouTubeCacheLifetime),
		},
	}
}

// Load is Setup followed by FromViper on a fresh viper instance.
func Load(fs afero.Fs, dir string) (*Config, error) {
	v := viper.New()
	if err := Setup(v, fs, dir); err != nil {
		return nil, err
	}
	return FromViper(v), nil
}
