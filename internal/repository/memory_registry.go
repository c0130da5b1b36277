package repository

import (
	"sort"
	"sync"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// memoryConnectionRepository keeps connections in a process-local map.
type memoryConnectionRepository struct {
	keys *keyedMutex

	mu          sync.RWMutex
	connections map[string]models.Connection
}

// NewMemoryConnectionRepository creates an in-process ConnectionRepository.
// Contents are lost on restart.
func NewMemoryConnectionRepository() ConnectionRepository {
	return &memoryConnectionRepository{
		keys:        newKeyedMutex(),
		connections: make(map[string]models.Connection),
	}
}

func (r *memoryConnectionRepository) Get(resourceID string) (*models.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[resourceID]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

func (r *memoryConnectionRepository) Set(conn *models.Connection) error {
	unlock := r.keys.Lock(conn.ResourceID)
	defer unlock()

	r.mu.Lock()
	r.connections[conn.ResourceID] = *conn
	r.mu.Unlock()
	return nil
}

func (r *memoryConnectionRepository) List() ([]models.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Connection, 0, len(r.connections))
	for _, c := range r.connections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceID < out[j].ResourceID })
	return out, nil
}

// memorySuiteRepository keeps mock suites in a process-local map.
type memorySuiteRepository struct {
	keys *keyedMutex

	mu     sync.RWMutex
	suites map[string][]models.MockTestSuite
}

// NewMemorySuiteRepository creates an in-process SuiteRepository.
func NewMemorySuiteRepository() SuiteRepository {
	return &memorySuiteRepository{
		keys:   newKeyedMutex(),
		suites: make(map[string][]models.MockTestSuite),
	}
}

func (r *memorySuiteRepository) Get(resourceID string) ([]models.MockTestSuite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(resourceID), nil
}

func (r *memorySuiteRepository) get(resourceID string) []models.MockTestSuite {
	suites := models.CloneSuites(r.suites[resourceID])
	if suites == nil {
		return []models.MockTestSuite{}
	}
	return suites
}

func (r *memorySuiteRepository) Set(resourceID string, suites []models.MockTestSuite) error {
	unlock := r.keys.Lock(resourceID)
	defer unlock()

	r.put(resourceID, suites)
	return nil
}

func (r *memorySuiteRepository) put(resourceID string, suites []models.MockTestSuite) {
	r.mu.Lock()
	r.suites[resourceID] = models.CloneSuites(suites)
	r.mu.Unlock()
}

func (r *memorySuiteRepository) Update(resourceID string, fn func([]models.MockTestSuite) ([]models.MockTestSuite, error)) ([]models.MockTestSuite, error) {
	unlock := r.keys.Lock(resourceID)
	defer unlock()

	r.mu.RLock()
	current := r.get(resourceID)
	r.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	r.put(resourceID, next)
	return models.CloneSuites(next), nil
}

func (r *memorySuiteRepository) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.suites))
	for id := range r.suites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
