package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialscraper/pkg/config"
)

func instagramCreds() *Credentials {
	return &Credentials{Network: NetworkInstagram, AccessToken: "ig-access-token-123456"}
}

func TestManagerRoundTrip(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(instagramCreds()))
	assert.Equal(t, 1, store.Count())

	got, err := manager.Retrieve(NetworkInstagram)
	require.NoError(t, err)
	assert.Equal(t, "ig-access-token-123456", got.AccessToken)
	assert.False(t, got.LastModified.IsZero())

	list, err := manager.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, NetworkInstagram, list[0].Network)

	require.NoError(t, manager.Delete(NetworkInstagram))
	_, err = manager.Retrieve(NetworkInstagram)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete(NetworkInstagram)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerRejectsInvalid(t *testing.T) {
	manager, store := NewMockManager()

	tests := []struct {
		name  string
		creds *Credentials
	}{
		{name: "nil", creds: nil},
		{name: "instagram without token", creds: &Credentials{Network: NetworkInstagram}},
		{name: "twitter key without secret", creds: &Credentials{Network: NetworkTwitter, ConsumerKey: "key"}},
		{name: "unknown network", creds: &Credentials{Network: "tumblr", AccessToken: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, manager.Store(tt.creds))
		})
	}
	assert.Zero(t, store.Count())

	assert.NoError(t, (&Credentials{Network: NetworkTwitter, BearerToken: "bearer"}).Validate())
	assert.NoError(t, (&Credentials{Network: NetworkTwitter, ConsumerKey: "k", ConsumerSecret: "s"}).Validate())
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	broken.RetrieveError = errors.New("keychain locked")
	backup := NewMockStore()

	manager := NewManagerWithStores(broken, backup)
	require.NoError(t, manager.Store(instagramCreds()))
	assert.Equal(t, 1, backup.Count())

	got, err := manager.Retrieve(NetworkInstagram)
	require.NoError(t, err)
	assert.Equal(t, "ig-access-token-123456", got.AccessToken)

	broken2 := NewMockStore()
	broken2.StoreError = errors.New("disk full")
	err = NewManagerWithStores(broken2).Store(instagramCreds())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()

	require.NoError(t, older.Store(&Credentials{Network: NetworkTwitter, BearerToken: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Credentials{Network: NetworkTwitter, BearerToken: "new", LastModified: now}))
	require.NoError(t, older.Store(instagramCreds()))

	list, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, NetworkInstagram, list[0].Network)
	assert.Equal(t, "new", list[1].BearerToken)
}

func TestApplyTo(t *testing.T) {
	manager, _ := NewMockManager()
	require.NoError(t, manager.Store(instagramCreds()))
	require.NoError(t, manager.Store(&Credentials{Network: NetworkTwitter, ConsumerKey: "key", ConsumerSecret: "secret"}))

	cfg := config.DefaultConfig()
	manager.ApplyTo(cfg)
	assert.Equal(t, "ig-access-token-123456", cfg.Instagram.AccessToken)
	assert.Equal(t, "key", cfg.Twitter.ConsumerKey)
	assert.Equal(t, "secret", cfg.Twitter.ConsumerSecret)

	configured := config.DefaultConfig()
	configured.Instagram.AccessToken = "from-config"
	configured.Twitter.BearerToken = "bearer-from-config"
	manager.ApplyTo(configured)
	assert.Equal(t, "from-config", configured.Instagram.AccessToken)
	assert.Equal(t, "bearer-from-config", configured.Twitter.BearerToken)
	assert.Empty(t, configured.Twitter.ConsumerKey)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "correct horse")
	require.NoError(t, err)

	_, err = store.Retrieve(NetworkInstagram)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(instagramCreds()))
	require.NoError(t, store.Store(&Credentials{Network: NetworkTwitter, BearerToken: "bearer"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "ig-access-token-123456")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStoreWithPassphrase(path, "correct horse")
	require.NoError(t, err)
	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bearer", list[1].BearerToken)

	require.NoError(t, reopened.Delete(NetworkTwitter))
	assert.False(t, reopened.Exists(NetworkTwitter))
	assert.True(t, reopened.Exists(NetworkInstagram))
	assert.ErrorIs(t, reopened.Delete(NetworkTwitter), ErrCredentialsNotFound)

	wrong, err := NewEncryptedFileStoreWithPassphrase(path, "battery staple")
	require.NoError(t, err)
	_, err = wrong.Retrieve(NetworkInstagram)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	_, err = NewEncryptedFileStoreWithPassphrase(path, "")
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("SOCIALSCRAPER_INSTAGRAM_ACCESS_TOKEN", "")
	t.Setenv("SOCIALSCRAPER_TWITTER_BEARER_TOKEN", "")
	t.Setenv("SOCIALSCRAPER_TWITTER_CONSUMER_KEY", "env-key")
	t.Setenv("SOCIALSCRAPER_TWITTER_CONSUMER_SECRET", "env-secret")

	store := NewEnvironmentStore()
	assert.False(t, store.Exists(NetworkInstagram))

	creds, err := store.Retrieve(NetworkTwitter)
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.ConsumerKey)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, store.Store(instagramCreds()), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(NetworkTwitter), ErrStoreUnavailable)
	_, err = store.Retrieve("tumblr")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSanitize(t *testing.T) {
	creds := &Credentials{
		Network:        NetworkTwitter,
		ConsumerKey:    "short",
		ConsumerSecret: "consumer-secret-value",
	}

	masked := Sanitize(creds)
	assert.Equal(t, NetworkTwitter, masked.Network)
	assert.Equal(t, "********", masked.ConsumerKey)
	assert.Equal(t, "cons...alue", masked.ConsumerSecret)
	assert.Empty(t, masked.BearerToken)
	assert.Equal(t, "consumer-secret-value", creds.ConsumerSecret, "original untouched")
	assert.Nil(t, Sanitize(nil))
}

func TestWriteCredentialGuide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCredentialGuide(&buf, NetworkTwitter))
	assert.Contains(t, buf.String(), "consumer key")

	buf.Reset()
	require.NoError(t, WriteCredentialGuide(&buf, NetworkInstagram))
	assert.Contains(t, buf.String(), "SOCIALSCRAPER_INSTAGRAM_ACCESS_TOKEN")

	assert.Error(t, WriteCredentialGuide(&buf, "myspace"))
}
