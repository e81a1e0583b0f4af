package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hamed0406/craftwatch/internal/domain"
	"github.com/hamed0406/craftwatch/internal/repo"
)

var _ repo.ServerStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)

// Store persists servers and ping history in a single SQLite file. WAL mode
// lets the background pinger keep appending while chart queries read.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlitedriver.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	if err := db.AutoMigrate(&domain.Server{}, &domain.PingResult{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---- ServerStore ----

func (s *Store) Add(ctx context.Context, sv *domain.Server) error {
	if sv.CreatedAt == "" {
		sv.CreatedAt = time.Now().UTC().Format(domain.TimeLayout)
	}
	if err := s.db.WithContext(ctx).Create(sv).Error; err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Server, error) {
	var out []domain.Server
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Server, error) {
	var sv domain.Server
	err := s.db.WithContext(ctx).First(&sv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get server: %w", err)
	}
	return &sv, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	// history is owned by the server; delete it in the same transaction
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", id).Delete(&domain.PingResult{}).Error; err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if err := tx.Delete(&domain.Server{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete server: %w", err)
		}
		return nil
	})
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, r *domain.PingResult) (int64, error) {
	r.ID = 0
	r.PingedAt = time.Now().UTC().Format(domain.TimeLayout)
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return 0, fmt.Errorf("insert ping result: %w", err)
	}
	return r.ID, nil
}

func (s *Store) History(ctx context.Context, serverID int64, sinceID *int64, windowSeconds *int64) ([]domain.PingResult, error) {
	q := s.db.WithContext(ctx).Where("server_id = ?", serverID)
	if sinceID != nil {
		q = q.Where("id > ?", *sinceID)
	} else if windowSeconds != nil {
		cutoff := time.Now().UTC().
			Add(-time.Duration(*windowSeconds) * time.Second).
			Format(domain.TimeLayout)
		q = q.Where("pinged_at >= ?", cutoff)
	}
	var out []domain.PingResult
	if err := q.Order("pinged_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

func (s *Store) Last(ctx context.Context, serverID int64) (*domain.PingResult, error) {
	var r domain.PingResult
	err := s.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		Order("pinged_at DESC, id DESC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last ping: %w", err)
	}
	return &r, nil
}
