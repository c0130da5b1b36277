package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

type registryBackend struct {
	name        string
	connections func(t *testing.T) ConnectionRepository
	suites      func(t *testing.T) SuiteRepository
}

func backends() []registryBackend {
	return []registryBackend{
		{
			name:        "memory",
			connections: func(*testing.T) ConnectionRepository { return NewMemoryConnectionRepository() },
			suites:      func(*testing.T) SuiteRepository { return NewMemorySuiteRepository() },
		},
		{
			name:        "sqlite",
			connections: func(t *testing.T) ConnectionRepository { return NewConnectionRepository(setupTestDB(t)) },
			suites:      func(t *testing.T) SuiteRepository { return NewSuiteRepository(setupTestDB(t)) },
		},
	}
}

func TestConnectionRepository(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.connections(t)

			got, err := repo.Get("r1")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, repo.Set(&models.Connection{
				ResourceID: "r1", ConnectionID: "c1",
				GithubURL: "g", PRD: "p", AdoURL: "a", WebsiteURL: "w",
			}))
			got, err = repo.Get("r1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "c1", got.ConnectionID)
			assert.Equal(t, "g", got.GithubURL)

			// overwrite, no merge
			require.NoError(t, repo.Set(&models.Connection{ResourceID: "r1", ConnectionID: "c2", PRD: "p2"}))
			got, err = repo.Get("r1")
			require.NoError(t, err)
			assert.Equal(t, "c2", got.ConnectionID)
			assert.Equal(t, "p2", got.PRD)
			assert.Empty(t, got.GithubURL)
			assert.Empty(t, got.WebsiteURL)

			require.NoError(t, repo.Set(&models.Connection{ResourceID: "r0", ConnectionID: "c3"}))
			all, err := repo.List()
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "r0", all[0].ResourceID)
		})
	}
}

func TestSuiteRepository(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.suites(t)

			got, err := repo.Get("r1")
			require.NoError(t, err)
			assert.Empty(t, got)

			suites := []models.MockTestSuite{
				{Name: "Plan A", TestCaseID: "1", TestCases: models.MockTestCases{{Name: "c", Steps: []string{"s"}}}},
				{Name: "Plan B", TestCaseID: "2", TestCases: models.MockTestCases{{Name: "d", Steps: []string{"t"}}}},
			}
			require.NoError(t, repo.Set("r1", suites))

			got, err = repo.Get("r1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Plan A", got[0].Name)
			assert.Equal(t, "Plan B", got[1].Name)

			updated, err := repo.Update("r1", func(current []models.MockTestSuite) ([]models.MockTestSuite, error) {
				current[1].TestCases[0].Status = "Creating"
				return append(current, models.MockTestSuite{Name: "Plan C", TestCaseID: "3"}), nil
			})
			require.NoError(t, err)
			assert.Len(t, updated, 3)

			got, err = repo.Get("r1")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "Creating", got[1].TestCases[0].Status)
			assert.Equal(t, "Plan C", got[2].Name)

			_, err = repo.Update("r1", func([]models.MockTestSuite) ([]models.MockTestSuite, error) {
				return nil, errors.New("abort")
			})
			assert.EqualError(t, err, "abort")
			got, _ = repo.Get("r1")
			assert.Len(t, got, 3)

			require.NoError(t, repo.Set("r1", []models.MockTestSuite{{Name: "Only"}}))
			got, _ = repo.Get("r1")
			require.Len(t, got, 1)
			assert.Equal(t, "Only", got[0].Name)

			ids, err := repo.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"r1"}, ids)
		})
	}
}

func TestMemorySuiteRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemorySuiteRepository()
	require.NoError(t, repo.Set("r1", []models.MockTestSuite{{Name: "A", TestCases: models.MockTestCases{{Name: "c"}}}}))

	got, _ := repo.Get("r1")
	got[0].TestCases[0].Status = "mutated"

	again, _ := repo.Get("r1")
	assert.Empty(t, again[0].TestCases[0].Status)
}

func TestMemorySuiteRepository_ConcurrentUpdatesSameKey(t *testing.T) {
	repo := NewMemorySuiteRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update("r1", func(current []models.MockTestSuite) ([]models.MockTestSuite, error) {
				return append(current, models.MockTestSuite{Name: fmt.Sprintf("s%d", i)}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, _ := repo.Get("r1")
	assert.Len(t, got, 50)
}
