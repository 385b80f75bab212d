package securestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-signer/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SecureEntry secure_entries 表
type SecureEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)"`
	Value     []byte    `gorm:"type:bytea;not null"`
	Policy    string    `gorm:"type:varchar(32);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SecureEntry) TableName() string {
	return "secure_entries"
}

// GormStore 基于 PostgreSQL 的存储
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// ConnectPostgres 连接到 PostgreSQL 数据库
// dsn: "host=localhost user=wallet password=wallet dbname=wallet port=5432 sslmode=disable"
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 不打印 SQL，条目值是密文但仍不应出现在日志里
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, unavailable("postgres connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, unavailable("postgres pool", err)
	}

	// 连接池配置
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("PostgreSQL 连接成功")
	return db, nil
}

// NewGormStore 自动迁移 secure_entries 表
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&SecureEntry{}); err != nil {
		return nil, unavailable("automigrate", err)
	}
	return &GormStore{db: db, now: time.Now}, nil
}

// openGormStore 建表失败时关闭连接池，避免泄漏
func openGormStore(db *gorm.DB) (*GormStore, error) {
	s, err := NewGormStore(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return s, nil
}

func (s *GormStore) Put(ctx context.Context, key string, value []byte, policy AccessPolicy) error {
	row := SecureEntry{Key: key, Value: value, Policy: string(policy), UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "policy", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return unavailable("upsert", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, key string) (*Entry, error) {
	var row SecureEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("select", err)
	}
	return &Entry{Value: row.Value, Policy: AccessPolicy(row.Policy), UpdatedAt: row.UpdatedAt}, nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&SecureEntry{}).Error; err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *GormStore) Has(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&SecureEntry{}).Where("key = ?", key).Count(&n).Error; err != nil {
		return false, unavailable("count", err)
	}
	return n > 0, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭 PostgreSQL 连接失败", zap.Error(err))
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}
