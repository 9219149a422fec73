// Package catalog records separation runs in a local SQLite database so
// batch jobs can be audited and re-listed later.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "stemforge.sqlite3"

var errClientNil = errors.New("catalog client is nil")

// Run is one completed separation: which track, which model and backend,
// and what came out.
type Run struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Track      string `gorm:"index:idx_track" json:"track"`
	ModelType  string `json:"model_type"`
	Backend    string `json:"backend"`
	SampleRate int    `json:"sample_rate"`
	Stems      string `json:"stems"` // comma-separated stem names as written
	DurationMs int    `json:"duration_ms"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	CreatedAt  time.Time
}

type Client struct {
	DB *gorm.DB
	db *sql.DB
}

// Open creates (or opens) the run catalog at dbPath and migrates the schema.
func Open(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Client{DB: db, db: sqlDB}, nil
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Record stores one run and returns its ID (generated when absent).
func (c *Client) Record(run Run) (string, error) {
	if c == nil || c.DB == nil {
		return "", errClientNil
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// List returns all recorded runs, newest first.
func (c *Client) List() ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var runs []Run
	if err := c.DB.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// ByTrack returns runs for one input track, newest first.
func (c *Client) ByTrack(track string) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var runs []Run
	if err := c.DB.Where("track = ?", track).Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("querying runs for %s: %w", track, err)
	}
	return runs, nil
}
