package config

import "time"

// Config is the top-level config file structure. Files ending in .toml are
// read as TOML, anything else as YAML.
type Config struct {
	Version  string       `yaml:"version" toml:"version" validate:"required"`
	Server   ServerConf   `yaml:"server" toml:"server"`
	Upstream UpstreamConf `yaml:"upstream" toml:"upstream"`
	View     ViewConf     `yaml:"view" toml:"view"`
}

// ServerConf holds HTTP server settings.
type ServerConf struct {
	Addr           string `yaml:"addr" toml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms" toml:"read_timeout_ms" validate:"gte=0"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" toml:"write_timeout_ms" validate:"gte=0"`
	MaxSessions    int    `yaml:"max_sessions" toml:"max_sessions" validate:"gte=0"`
}

// UpstreamConf describes the graph endpoint cases are fetched from.
type UpstreamConf struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url" validate:"required,url"`
	TimeoutMs         int     `yaml:"timeout_ms" toml:"timeout_ms" validate:"gte=0"`
	RatePerSecond     float64 `yaml:"rate_per_second" toml:"rate_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" toml:"burst" validate:"gte=0"`
	BreakerFailures   uint32  `yaml:"breaker_failures" toml:"breaker_failures"`
	BreakerCooldownMs int     `yaml:"breaker_cooldown_ms" toml:"breaker_cooldown_ms" validate:"gte=0"`
}

// ViewConf controls how a freshly loaded case is first shown.
type ViewConf struct {
	ExcludedEdgeTypes []string `yaml:"excluded_edge_types" toml:"excluded_edge_types" validate:"dive,required"`
	SeedNodeType      string   `yaml:"seed_node_type" toml:"seed_node_type"`
	SampleSize        int      `yaml:"sample_size" toml:"sample_size" validate:"gte=0"`
	HistoryLimit      int      `yaml:"history_limit" toml:"history_limit" validate:"gte=0"`
}

func (u UpstreamConf) Timeout() time.Duration {
	return time.Duration(u.TimeoutMs) * time.Millisecond
}

func (u UpstreamConf) BreakerCooldown() time.Duration {
	return time.Duration(u.BreakerCooldownMs) * time.Millisecond
}

func (s ServerConf) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (s ServerConf) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}
