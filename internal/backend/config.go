package backend

import (
	"errors"
	"fmt"
	"strings"

	"spendlens/internal/config"
)

// ErrUnknownBackend is returned for a DATA_BACKEND value no factory can build.
var ErrUnknownBackend = errors.New("unknown backend")

// BackendTypes lists the supported stores in documentation order.
func BackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend}
}

// ParseBackendType accepts a backend name in any case, surrounding space ignored.
func ParseBackendType(s string) (BackendType, error) {
	bt := BackendType(strings.ToLower(strings.TrimSpace(s)))
	if !bt.IsValid() {
		return "", fmt.Errorf("%w %q: must be one of %s", ErrUnknownBackend, s, backendList())
	}
	return bt, nil
}

// FromAppConfig derives the store settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	bt, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Type: bt}
	if bt == SQLiteBackend {
		cfg.SQLiteDBPath = appConfig.SQLiteDBPath
	}
	return cfg, cfg.Validate()
}

// Validate checks that the settings needed by the chosen store are present.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w %q: must be one of %s", ErrUnknownBackend, c.Type, backendList())
	}
	if c.Type == SQLiteBackend && strings.TrimSpace(c.SQLiteDBPath) == "" {
		return errors.New("backend: sqlite requires SQLITE_DB_PATH")
	}
	return nil
}

func backendList() string {
	names := make([]string, 0, len(BackendTypes()))
	for _, bt := range BackendTypes() {
		names = append(names, bt.String())
	}
	return strings.Join(names, ", ")
}
