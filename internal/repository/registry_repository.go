package repository

import (
	"sync"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// ConnectionRepository stores saved integration configurations by resourceId.
type ConnectionRepository interface {
	// Get returns nil, nil when no connection is saved for resourceID
	Get(resourceID string) (*models.Connection, error)

	// Set saves conn, replacing any previous entry for the same resourceId
	Set(conn *models.Connection) error

	// List returns every saved connection
	List() ([]models.Connection, error)
}

// SuiteRepository stores the mock test suites derived for a resourceId.
type SuiteRepository interface {
	// Get returns the suites for resourceID, or an empty slice
	Get(resourceID string) ([]models.MockTestSuite, error)

	// Set replaces the suites for resourceID
	Set(resourceID string, suites []models.MockTestSuite) error

	// Update applies fn to the current suites and stores the result while
	// holding the resourceID's lock. The stored list is returned.
	Update(resourceID string, fn func([]models.MockTestSuite) ([]models.MockTestSuite, error)) ([]models.MockTestSuite, error)

	// List returns the resourceIds that have suites
	List() ([]string, error)
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock locks key and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
