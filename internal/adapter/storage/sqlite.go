package storage

import (
	"errors"

	"github.com/nickwest/sunchaser/internal/core/port"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const alignmentRecordKey = "alignment"

type stateRecord struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (stateRecord) TableName() string {
	return "controller_state"
}

// SQLiteStateStore keeps the encoded alignment record in a single-row
// sqlite table, for deployments whose state path sits on storage where
// partial file writes are a concern.
type SQLiteStateStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSQLiteStateStore(path string, zlog *zap.Logger) (*SQLiteStateStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&stateRecord{}); err != nil {
		return nil, err
	}
	return &SQLiteStateStore{
		db:     db,
		logger: zlog.With(zap.String("store", "sqlite"), zap.String("path", path)),
	}, nil
}

func (s *SQLiteStateStore) Load() (string, error) {
	var record stateRecord
	err := s.db.First(&record, "key = ?", alignmentRecordKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.Value, nil
}

func (s *SQLiteStateStore) Save(encoded string) error {
	s.logger.Debug("persist state", zap.String("value", encoded))
	return s.db.Save(&stateRecord{Key: alignmentRecordKey, Value: encoded}).Error
}

func (s *SQLiteStateStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensure interface compliance
var _ port.AlignmentStateStore = (*SQLiteStateStore)(nil)
