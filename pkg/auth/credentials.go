package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"socialscraper/pkg/config"
)

// Supported networks
const (
	NetworkInstagram = "instagram"
	NetworkTwitter   = "twitter"
)

// Networks lists the networks credentials can be stored for
var Networks = []string{NetworkInstagram, NetworkTwitter}

// Credentials are the API secrets of one network
type Credentials struct {
	Network string `json:"network"`
	// AccessToken authenticates Instagram requests
	AccessToken string `json:"access_token,omitempty"`
	// ConsumerKey and ConsumerSecret are exchanged for a Twitter bearer token
	ConsumerKey    string    `json:"consumer_key,omitempty"`
	ConsumerSecret string    `json:"consumer_secret,omitempty"`
	BearerToken    string    `json:"bearer_token,omitempty"`
	LastModified   time.Time `json:"last_modified"`
}

// Validate checks that the secrets the network needs are present
func (c *Credentials) Validate() error {
	if c == nil {
		return ErrInvalidCredentials
	}
	switch c.Network {
	case NetworkInstagram:
		if c.AccessToken == "" {
			return errors.New("instagram access token is required")
		}
	case NetworkTwitter:
		if c.BearerToken == "" && (c.ConsumerKey == "" || c.ConsumerSecret == "") {
			return errors.New("twitter needs a bearer token or a consumer key and secret")
		}
	default:
		return fmt.Errorf("unsupported network %q", c.Network)
	}
	return nil
}

// Apply copies the secrets into cfg where it has none of its own
func (c *Credentials) Apply(cfg *config.Config) {
	switch c.Network {
	case NetworkInstagram:
		if cfg.Instagram.AccessToken == "" {
			cfg.Instagram.AccessToken = c.AccessToken
		}
	case NetworkTwitter:
		if cfg.Twitter.BearerToken != "" || cfg.Twitter.ConsumerKey != "" {
			return
		}
		cfg.Twitter.BearerToken = c.BearerToken
		cfg.Twitter.ConsumerKey = c.ConsumerKey
		cfg.Twitter.ConsumerSecret = c.ConsumerSecret
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(creds *Credentials) error
	Retrieve(network string) (*Credentials, error)
	List() ([]*Credentials, error)
	Delete(network string) error
	Exists(network string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager uses the system keychain when available, then an encrypted
// file, then environment variables.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over explicit stores, in priority order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials in the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(creds)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(network string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(network); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrCredentialsNotFound, network)
}

// List returns the most recent credentials of every network, by name
func (m *Manager) List() ([]*Credentials, error) {
	byNetwork := make(map[string]*Credentials)

	for _, store := range m.stores {
		list, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range list {
			if existing, ok := byNetwork[creds.Network]; !ok || creds.LastModified.After(existing.LastModified) {
				byNetwork[creds.Network] = creds
			}
		}
	}

	result := make([]*Credentials, 0, len(byNetwork))
	for _, creds := range byNetwork {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Network < result[j].Network })
	return result, nil
}

// Delete removes credentials from every store holding them
func (m *Manager) Delete(network string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(network); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for %s", ErrCredentialsNotFound, network)
	}
	return nil
}

// ApplyTo fills the API secrets missing from cfg with stored credentials
func (m *Manager) ApplyTo(cfg *config.Config) {
	for _, network := range Networks {
		if creds, err := m.Retrieve(network); err == nil {
			creds.Apply(cfg)
		}
	}
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "socialscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "socialscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "socialscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "socialscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy with every secret masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}
	return &Credentials{
		Network:        creds.Network,
		AccessToken:    maskString(creds.AccessToken),
		ConsumerKey:    maskString(creds.ConsumerKey),
		ConsumerSecret: maskString(creds.ConsumerSecret),
		BearerToken:    maskString(creds.BearerToken),
		LastModified:   creds.LastModified,
	}
}

// maskString keeps the first and last 4 characters of long secrets
func maskString(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return strings.Repeat("*", 8)
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
