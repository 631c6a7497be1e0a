package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/vaughan0/go-ini"

	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
	"github.com/tuongmengleang/firechat/internal/protocol/replay"
	"github.com/tuongmengleang/firechat/internal/store"
)

const (
	// DefaultHome is the client state directory before expansion.
	DefaultHome = "~/.firechat"
	// DefaultRelayURL is used when neither flags nor the config file name one.
	DefaultRelayURL = "http://127.0.0.1:8080"
	// ConfigFileName is the optional INI file read from Home.
	ConfigFileName = "firechat.ini"

	iniSection = "client"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home           string // state directory, e.g. $HOME/.firechat
	RelayURL       string // relay base URL, e.g. http://127.0.0.1:8080
	Passphrase     string // seals the local key store
	DisplayName    string // used on first sign-in
	LogLevel       string
	ReplayCapacity int       // seen-nonce set size; 0 selects the default
	KeyKDF         store.KDF // derivation for newly sealed key files

	HTTP    *http.Client           // optional; defaults to a client with relay.DefaultTimeout
	Relay   domain.RelayClient     // optional; overrides the HTTP relay client
	Log     *observability.Logger  // optional; defaults to a discarding logger
	Metrics *observability.Metrics // optional; a fresh registry per Wire otherwise
}

// DefaultConfig returns the settings used before flags and the config file
// are applied.
func DefaultConfig() Config {
	return Config{
		Home:           DefaultHome,
		RelayURL:       DefaultRelayURL,
		LogLevel:       "info",
		ReplayCapacity: replay.DefaultCapacity,
		KeyKDF:         store.KDFArgon2id,
	}
}

// ExpandHome resolves a leading ~ in Home.
func (c *Config) ExpandHome() error {
	home, err := homedir.Expand(c.Home)
	if err != nil {
		return fmt.Errorf("expand home %q: %w", c.Home, err)
	}
	c.Home = filepath.Clean(home)
	return nil
}

// ConfigPath returns the INI file location under Home.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Home, ConfigFileName)
}

// LoadFile applies the [client] section of the INI file at path. A missing
// file leaves the config untouched.
//
//	[client]
//	relay = http://relay.example:8080
//	display_name = Alice
//	replay_capacity = 10000
//	log_level = debug
//	key_kdf = scrypt
func (c *Config) LoadFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	cfg, err := ini.LoadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if v, ok := cfg.Get(iniSection, "relay"); ok && v != "" {
		c.RelayURL = v
	}
	if v, ok := cfg.Get(iniSection, "display_name"); ok {
		c.DisplayName = v
	}
	if v, ok := cfg.Get(iniSection, "log_level"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := cfg.Get(iniSection, "replay_capacity"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("[%s]replay_capacity must be a non-negative integer", iniSection)
		}
		c.ReplayCapacity = n
	}
	if v, ok := cfg.Get(iniSection, "key_kdf"); ok {
		kdf, err := store.ParseKDF(v)
		if err != nil {
			return fmt.Errorf("[%s]key_kdf: %w", iniSection, err)
		}
		c.KeyKDF = kdf
	}
	return nil
}
