package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"cipher_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// History is the write-only SQLite audit trail of ledger entries.
// The ledger never reads it back.
type History struct {
	db *gorm.DB
}

// NewHistory opens (or creates) the history database. An empty path uses
// the per-user data directory.
func NewHistory(path string) (*History, error) {
	if path == "" {
		var err error
		path, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.OrderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &History{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CipherGo", "data", "history.db"), nil
}

// SaveOrder upserts the entry; on conflict only the mutable columns change.
func (h *History) SaveOrder(o domain.Order) error {
	rec := domain.NewOrderRecord(o)
	return h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "status", "updated_at"}),
	}).Create(rec).Error
}

// GetOrder retrieves a history row by transaction hash.
func (h *History) GetOrder(txHash string) (*domain.OrderRecord, error) {
	var rec domain.OrderRecord
	err := h.db.First(&rec, "tx_hash = ?", txHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListOrders returns all rows, oldest placement first.
func (h *History) ListOrders() ([]domain.OrderRecord, error) {
	var recs []domain.OrderRecord
	err := h.db.Order("placed_at asc").Find(&recs).Error
	return recs, err
}

// CountByStatus returns the number of rows with the given status.
func (h *History) CountByStatus(status domain.OrderStatus) (int64, error) {
	var n int64
	err := h.db.Model(&domain.OrderRecord{}).Where("status = ?", string(status)).Count(&n).Error
	return n, err
}

// Close releases the database handle.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
