package bag

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"
)

const (
	sqliteSchemaVersion = 3
	rosDistro           = "humble"
)

type schemaRow struct {
	SchemaVersion int    `gorm:"primaryKey;autoIncrement:false"`
	RosDistro     string `gorm:"not null"`
}

func (schemaRow) TableName() string { return "schema" }

type metadataRow struct {
	ID              int64  `gorm:"primaryKey"`
	MetadataVersion int    `gorm:"not null"`
	Metadata        string `gorm:"not null"`
}

func (metadataRow) TableName() string { return "metadata" }

type topicRow struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement:false"`
	Name                string `gorm:"not null"`
	Type                string `gorm:"not null"`
	SerializationFormat string `gorm:"not null"`
	OfferedQosProfiles  string `gorm:"not null"`
}

func (topicRow) TableName() string { return "topics" }

type messageRow struct {
	ID        int64  `gorm:"primaryKey"`
	TopicID   int64  `gorm:"not null"`
	Timestamp int64  `gorm:"not null;index:timestamp_idx"`
	Data      []byte `gorm:"not null"`
}

func (messageRow) TableName() string { return "messages" }

// sqliteStorage writes everything inside one transaction, committed on finalize.
type sqliteStorage struct {
	path string
	db   *gorm.DB
	tx   *gorm.DB
}

func newSQLiteStorage(path string) (*sqliteStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := db.AutoMigrate(&schemaRow{}, &metadataRow{}, &topicRow{}, &messageRow{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		closeDB(db)
		return nil, fmt.Errorf("begin: %w", tx.Error)
	}

	if err := tx.Create(&schemaRow{SchemaVersion: sqliteSchemaVersion, RosDistro: rosDistro}).Error; err != nil {
		tx.Rollback()
		closeDB(db)
		return nil, fmt.Errorf("schema: %w", err)
	}

	return &sqliteStorage{path: path, db: db, tx: tx}, nil
}

func (s *sqliteStorage) createTopic(id int, t Topic) error {
	return s.tx.Create(&topicRow{
		ID:                  int64(id),
		Name:                t.Name,
		Type:                t.Type,
		SerializationFormat: t.SerializationFormat,
		OfferedQosProfiles:  t.OfferedQoSProfiles,
	}).Error
}

func (s *sqliteStorage) write(id int, data []byte, ts int64) error {
	return s.tx.Create(&messageRow{TopicID: int64(id), Timestamp: ts, Data: data}).Error
}

func (s *sqliteStorage) finalize(md []byte) error {
	if err := s.tx.Create(&metadataRow{MetadataVersion: metadataVersion, Metadata: string(md)}).Error; err != nil {
		s.tx.Rollback()
		closeDB(s.db)
		return fmt.Errorf("metadata: %w", err)
	}

	if err := s.tx.Commit().Error; err != nil {
		closeDB(s.db)
		return fmt.Errorf("commit: %w", err)
	}
	klog.V(2).Infof("committed %s", s.path)
	return closeDB(s.db)
}

func (s *sqliteStorage) abort() error {
	s.tx.Rollback()
	return closeDB(s.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
