// internal/store/postgres.go
//
// Postgres-backed Store using gorm.
// One kv_entries row per key; AutoMigrate creates the table on open.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the row shape for the Postgres backend.
type KVEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"type:bytea;not null"`
	UpdatedAt time.Time
}

type postgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the kv_entries table.
func OpenPostgres(dsn string) (Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e KVEntry
	err := s.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *postgresStore) Set(ctx context.Context, key string, value []byte) error {
	e := KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
