// Package config reads application settings from the environment.
// File: config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-model-viewer/logger"
)

// Config holds settings shared by the model server and the viewer.
type Config struct {
	ServerAddr          string        // host:port the viewer talks to
	ListenAddr          string        // address the model server binds
	ModelsDir           string        // directory of model assets served under /models/
	DefaultModel        string        // asset loaded at viewer start
	ModelColor          uint32        // 0xRRGGBB for the default model
	TrackingInterval    time.Duration // render tick while a gesture is active
	RequestTimeout      time.Duration // list request / asset fetch timeout
	CatalogPollInterval time.Duration
	Env                 string
	LogDir              string
	MetricsEnabled      bool
	AWSRegion           string
	ApplicationURL      string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ServerAddr:          "localhost:8080",
		ListenAddr:          ":8080",
		ModelsDir:           "./static/models",
		DefaultModel:        "teapot.js",
		ModelColor:          0x009900,
		TrackingInterval:    10 * time.Millisecond,
		RequestTimeout:      10 * time.Second,
		CatalogPollInterval: 5 * time.Second,
		Env:                 "development",
		LogDir:              "./logs",
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn.Printf("[config.Load] Could not read .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function, falling back to Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	setString(getenv, "VIEWER_SERVER", &cfg.ServerAddr)
	setString(getenv, "LISTEN_ADDR", &cfg.ListenAddr)
	setString(getenv, "MODELS_DIR", &cfg.ModelsDir)
	setString(getenv, "DEFAULT_MODEL", &cfg.DefaultModel)
	setString(getenv, "APP_ENV", &cfg.Env)
	setString(getenv, "LOG_DIR", &cfg.LogDir)
	setString(getenv, "AWS_REGION", &cfg.AWSRegion)
	setString(getenv, "APPLICATION_URL", &cfg.ApplicationURL)

	if v := getenv("MODEL_COLOR"); v != "" {
		c, err := ParseColor(v)
		if err != nil {
			return cfg, fmt.Errorf("config: MODEL_COLOR: %w", err)
		}
		cfg.ModelColor = c
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TRACKING_INTERVAL", &cfg.TrackingInterval},
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"CATALOG_POLL_INTERVAL", &cfg.CatalogPollInterval},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return cfg, fmt.Errorf("config: %s: invalid duration %q", d.key, v)
		}
		*d.dst = parsed
	}

	if v := getenv("METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = b
	}

	if cfg.ApplicationURL == "" {
		cfg.ApplicationURL = "http://" + cfg.ServerAddr
	}
	return cfg, nil
}

// HTTPBase is the http:// base URL of the model server.
func (c Config) HTTPBase() string { return "http://" + c.ServerAddr }

// WebsocketURL is the ws:// URL of the model server.
func (c Config) WebsocketURL() string { return "ws://" + c.ServerAddr + "/" }

// ModelURL is the asset URL for the named model file.
func (c Config) ModelURL(file string) string { return c.HTTPBase() + "/models/" + file }

// ParseColor accepts 0xRRGGBB, #RRGGBB or RRGGBB.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if v > 0xffffff {
		return 0, fmt.Errorf("color %q out of range", s)
	}
	return uint32(v), nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}
