package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoreBackend selects where the bearer credential is persisted.
type StoreBackend string

const (
	// StoreBackendFile keeps the credential in a local state file.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis keeps the credential in Redis (shared between processes/hosts).
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory keeps the credential for the lifetime of the process only.
	StoreBackendMemory StoreBackend = "memory"
)

const (
	defaultStorageKey      = "medplus_token"
	defaultRefreshInterval = 5 * time.Minute
	minRefreshInterval     = time.Second
	sessionFileName        = "session.json"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "redis", "memory":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis, memory)", v)
	}
}

// SessionConfig groups token storage and session refresh configuration.
type SessionConfig struct {
	// Store determines which token store backend to use.
	Store StoreBackend `env:"SESSION_STORE" envDefault:"file"`

	// StorageKey is the namespaced key the raw token is stored under.
	StorageKey string `env:"SESSION_STORAGE_KEY" envDefault:"medplus_token"`

	// StateDir is the directory holding the file store. Defaults to $HOME/.medplus.
	StateDir string `env:"SESSION_STATE_DIR"`

	// JWKSURL enables signature verification of stored and issued tokens when set.
	JWKSURL string `env:"SESSION_JWKS_URL"`

	// RefreshInterval is the dashboard background refresh period.
	RefreshInterval time.Duration `env:"SESSION_REFRESH_INTERVAL" envDefault:"5m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.Store == "" {
		s.Store = StoreBackendFile
	}
	s.StorageKey = strings.TrimSpace(s.StorageKey)
	if s.StorageKey == "" {
		s.StorageKey = defaultStorageKey
	}
	s.StateDir = strings.TrimSpace(s.StateDir)
	if s.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.StateDir = filepath.Join(home, ".medplus")
		} else {
			s.StateDir = ".medplus"
		}
	}
	s.JWKSURL = strings.TrimSpace(s.JWKSURL)
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = defaultRefreshInterval
	}
	if s.RefreshInterval < minRefreshInterval {
		s.RefreshInterval = minRefreshInterval
	}
}

// StorePath returns the path of the file-backed token store.
func (s *SessionConfig) StorePath() string {
	return filepath.Join(s.StateDir, sessionFileName)
}

// VerifySignatures reports whether a JWKS endpoint is configured.
func (s *SessionConfig) VerifySignatures() bool {
	return s.JWKSURL != ""
}
