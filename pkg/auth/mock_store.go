package auth

import (
	"sort"
	"sync"
)

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	creds map[string]Credentials
	mu    sync.RWMutex

	// Injected errors, returned before touching the map
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]Credentials)}
}

// NewMockManager creates a Manager backed by a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if creds == nil || creds.Network == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[creds.Network] = *creds
	return nil
}

func (m *MockStore) Retrieve(network string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	creds, ok := m.creds[network]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &creds, nil
}

func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Credentials, 0, len(m.creds))
	for network := range m.creds {
		creds := m.creds[network]
		list = append(list, &creds)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Network < list[j].Network })
	return list, nil
}

func (m *MockStore) Delete(network string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[network]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, network)
	return nil
}

func (m *MockStore) Exists(network string) bool {
	_, err := m.Retrieve(network)
	return err == nil
}

// Count returns the number of stored networks
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}
