package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML or TOML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Invalid files are logged and the previous config is kept.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "config watcher")
	}
	// Watch the directory so editors that replace the file are seen too.
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "config watcher add %s", dir)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload skipped", "path", l.path, "err", err.Error())
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file. The new config is
// installed and announced only if it parses and validates.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", l.path)
	}
	cfg, err := Parse(data, FormatOf(l.path))
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", l.path)
	}
	return cfg, nil
}

// Format is a config file syntax.
type Format int

const (
	YAML Format = iota
	TOML
)

// FormatOf picks TOML for .toml files and YAML for anything else.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Parse decodes data, applies defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case TOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "parse toml")
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse yaml")
		}
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 10000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 256
	}
	if cfg.Upstream.TimeoutMs == 0 {
		cfg.Upstream.TimeoutMs = 10000
	}
	if cfg.Upstream.Burst == 0 {
		cfg.Upstream.Burst = 4
	}
	if cfg.Upstream.BreakerFailures == 0 {
		cfg.Upstream.BreakerFailures = 5
	}
	if cfg.Upstream.BreakerCooldownMs == 0 {
		cfg.Upstream.BreakerCooldownMs = 30000
	}
	// nil means unset; an explicit empty list shows every edge type.
	if cfg.View.ExcludedEdgeTypes == nil {
		cfg.View.ExcludedEdgeTypes = []string{"Loaded", "File Of"}
	}
	if cfg.View.SeedNodeType == "" {
		cfg.View.SeedNodeType = "Alert"
	}
	if cfg.View.SampleSize == 0 {
		cfg.View.SampleSize = 10
	}
}
