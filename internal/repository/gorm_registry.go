package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khushigoel4699/Testplansserver/internal/models"
)

// gormConnectionRepository implements ConnectionRepository on a gorm database
type gormConnectionRepository struct {
	db   *gorm.DB
	keys *keyedMutex
}

// NewConnectionRepository creates a database-backed ConnectionRepository
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &gormConnectionRepository{db: db, keys: newKeyedMutex()}
}

func (r *gormConnectionRepository) Get(resourceID string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.Where("resource_id = ?", resourceID).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// Set upserts on resource_id so a second save overwrites every field
func (r *gormConnectionRepository) Set(conn *models.Connection) error {
	unlock := r.keys.Lock(conn.ResourceID)
	defer unlock()

	row := *conn
	row.ID = 0
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"connection_id", "github_url", "prd", "ado_url", "website_url", "updated_at"}),
	}).Create(&row).Error
}

func (r *gormConnectionRepository) List() ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.Order("resource_id").Find(&conns).Error
	return conns, err
}

// gormSuiteRepository implements SuiteRepository on a gorm database
type gormSuiteRepository struct {
	db   *gorm.DB
	keys *keyedMutex
}

// NewSuiteRepository creates a database-backed SuiteRepository
func NewSuiteRepository(db *gorm.DB) SuiteRepository {
	return &gormSuiteRepository{db: db, keys: newKeyedMutex()}
}

func (r *gormSuiteRepository) Get(resourceID string) ([]models.MockTestSuite, error) {
	return findSuites(r.db, resourceID)
}

func (r *gormSuiteRepository) Set(resourceID string, suites []models.MockTestSuite) error {
	unlock := r.keys.Lock(resourceID)
	defer unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		return replaceSuites(tx, resourceID, suites)
	})
}

// Update reads, applies fn and rewrites the suites in one transaction
func (r *gormSuiteRepository) Update(resourceID string, fn func([]models.MockTestSuite) ([]models.MockTestSuite, error)) ([]models.MockTestSuite, error) {
	unlock := r.keys.Lock(resourceID)
	defer unlock()

	var result []models.MockTestSuite
	err := r.db.Transaction(func(tx *gorm.DB) error {
		current, err := findSuites(tx, resourceID)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if err := replaceSuites(tx, resourceID, next); err != nil {
			return err
		}
		result = models.CloneSuites(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *gormSuiteRepository) List() ([]string, error) {
	var ids []string
	err := r.db.Model(&models.MockTestSuite{}).
		Distinct("resource_id").
		Order("resource_id").
		Pluck("resource_id", &ids).Error
	return ids, err
}

func findSuites(db *gorm.DB, resourceID string) ([]models.MockTestSuite, error) {
	var suites []models.MockTestSuite
	err := db.Where("resource_id = ?", resourceID).
		Order("position").
		Find(&suites).Error
	if err != nil {
		return nil, err
	}
	if suites == nil {
		suites = []models.MockTestSuite{}
	}
	return suites, nil
}

func replaceSuites(tx *gorm.DB, resourceID string, suites []models.MockTestSuite) error {
	if err := tx.Where("resource_id = ?", resourceID).Delete(&models.MockTestSuite{}).Error; err != nil {
		return err
	}
	if len(suites) == 0 {
		return nil
	}

	rows := models.CloneSuites(suites)
	for i := range rows {
		rows[i].ID = 0
		rows[i].ResourceID = resourceID
		rows[i].Position = i
	}
	return tx.Create(&rows).Error
}

// AutoMigrate creates the registry tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Connection{}, &models.MockTestSuite{})
}
