package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the reminder bot service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool
	CORSOrigins    []string

	UTCOffset   string
	Location    *time.Location
	TextsPath   string
	OutboxLimit int
	SendBuffer  int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "remindbot"),
		ShutdownTimeout:  15 * time.Second,
		AllowAnyOrigin:   false,
		CORSOrigins:      listFromEnv("APP_CORS_ORIGINS"),
		UTCOffset:        envOrDefault("BOT_UTC_OFFSET", "+03:00"),
		TextsPath:        stringsTrimSpace("BOT_TEXTS_PATH"),
		OutboxLimit:      64,
		SendBuffer:       64,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxLimit, err = intFromEnv("BOT_OUTBOX_LIMIT", cfg.OutboxLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.SendBuffer, err = intFromEnv("BOT_SEND_BUFFER", cfg.SendBuffer)
	if err != nil {
		return Config{}, err
	}
	cfg.Location, err = ParseUTCOffset(cfg.UTCOffset)
	if err != nil {
		return Config{}, fmt.Errorf("BOT_UTC_OFFSET parse error: %w", err)
	}

	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.OutboxLimit < 0 {
		return Config{}, fmt.Errorf("BOT_OUTBOX_LIMIT must be >= 0")
	}
	if cfg.SendBuffer <= 0 {
		return Config{}, fmt.Errorf("BOT_SEND_BUFFER must be positive")
	}

	return cfg, nil
}

// ParseUTCOffset turns "+03:00", "-0530", "+3" or "UTC" into a fixed zone.
func ParseUTCOffset(v string) (*time.Location, error) {
	v = strings.TrimSpace(v)
	switch strings.ToUpper(v) {
	case "", "Z", "UTC", "0":
		return time.UTC, nil
	}
	if v[0] != '+' && v[0] != '-' {
		return nil, fmt.Errorf("offset %q must start with + or -", v)
	}
	sign := 1
	if v[0] == '-' {
		sign = -1
	}
	body := strings.ReplaceAll(v[1:], ":", "")
	if strings.ContainsAny(body, "+-") {
		return nil, fmt.Errorf("offset %q must carry a single sign", v)
	}

	var hours, minutes int
	var err error
	switch len(body) {
	case 1, 2:
		hours, err = strconv.Atoi(body)
	case 4:
		hours, err = strconv.Atoi(body[:2])
		if err == nil {
			minutes, err = strconv.Atoi(body[2:])
		}
	default:
		return nil, fmt.Errorf("offset %q must look like +HH:MM", v)
	}
	if err != nil {
		return nil, fmt.Errorf("offset %q: %w", v, err)
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset %q out of range", v)
	}

	secs := sign * (hours*3600 + minutes*60)
	name := fmt.Sprintf("UTC%c%02d:%02d", v[0], hours, minutes)
	return time.FixedZone(name, secs), nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func listFromEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(stringsTrimSpace(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
