package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads credentials from the SOCIALSCRAPER_* variables
// that the config layer also honours. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(network string) (*Credentials, error) {
	var creds *Credentials
	switch network {
	case NetworkInstagram:
		creds = &Credentials{
			Network:     network,
			AccessToken: os.Getenv("SOCIALSCRAPER_INSTAGRAM_ACCESS_TOKEN"),
		}
	case NetworkTwitter:
		creds = &Credentials{
			Network:        network,
			BearerToken:    os.Getenv("SOCIALSCRAPER_TWITTER_BEARER_TOKEN"),
			ConsumerKey:    os.Getenv("SOCIALSCRAPER_TWITTER_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("SOCIALSCRAPER_TWITTER_CONSUMER_SECRET"),
		}
	default:
		return nil, ErrInvalidCredentials
	}

	if creds.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	creds.LastModified = time.Time{}
	return creds, nil
}

// List returns the networks whose variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	var list []*Credentials
	for _, network := range Networks {
		if creds, err := e.Retrieve(network); err == nil {
			list = append(list, creds)
		}
	}
	return list, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(network string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(network string) bool {
	_, err := e.Retrieve(network)
	return err == nil
}
