package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

// RecordQuery selects scrape records for the freshness gate. A non-empty
// Ident matches on the fingerprint alone; otherwise the four request
// columns must match exactly.
type RecordQuery struct {
	Ident      string
	Network    string
	Repository string
	Method     string
	Filters    string
	Statuses   []string
	// Since excludes records logged at or before it; zero means no bound
	Since time.Time
}

// GormStore persists scrape records and entities in sqlite through gorm.
// Tables are created lazily, the first time an entity kind is written.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger

	mu       sync.Mutex
	migrated map[models.Kind]bool
}

// Open connects to the sqlite database at path
func Open(path string, debug bool, log logger.Logger) (*GormStore, error) {
	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db, log), nil
}

// New wraps an existing gorm connection
func New(db *gorm.DB, log logger.Logger) *GormStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &GormStore{
		db:       db,
		logger:   log.WithField("component", "store"),
		migrated: make(map[models.Kind]bool),
	}
}

// DB exposes the underlying connection
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Close releases the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func modelFor(kind models.Kind) (interface{}, error) {
	switch kind {
	case models.KindRecord:
		return &models.ScrapeRecord{}, nil
	case models.KindPost:
		return &models.Post{}, nil
	case models.KindUser:
		return &models.User{}, nil
	case models.KindTag:
		return &models.Tag{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// HasSchema reports whether the table backing kind exists
func (s *GormStore) HasSchema(ctx context.Context, kind models.Kind) bool {
	s.mu.Lock()
	done := s.migrated[kind]
	s.mu.Unlock()
	if done {
		return true
	}

	model, err := modelFor(kind)
	if err != nil {
		return false
	}
	return s.db.WithContext(ctx).Migrator().HasTable(model)
}

// EnsureSchema creates or updates the table backing kind
func (s *GormStore) EnsureSchema(ctx context.Context, kind models.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.migrated[kind] {
		return nil
	}

	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).AutoMigrate(model); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", kind, err)
	}

	s.migrated[kind] = true
	s.logger.DebugWithFields("schema ready", map[string]interface{}{"kind": string(kind)})
	return nil
}

// findOne loads the first row matching the conditions, or nil when the
// table is missing or no row matches.
func findOne[T any](ctx context.Context, s *GormStore, kind models.Kind, order string, query string, args ...interface{}) (*T, error) {
	if !s.HasSchema(ctx, kind) {
		return nil, nil
	}

	var row T
	tx := s.db.WithContext(ctx).Where(query, args...)
	if order != "" {
		tx = tx.Order(order)
	}
	result := tx.Limit(1).Find(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (s *GormStore) create(ctx context.Context, kind models.Kind, value interface{}) error {
	if err := s.EnsureSchema(ctx, kind); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(value).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

// LatestRecord returns the newest scrape record matching q, or nil
func (s *GormStore) LatestRecord(ctx context.Context, q RecordQuery) (*models.ScrapeRecord, error) {
	query := "network = ? AND repository = ? AND method = ? AND filters = ?"
	args := []interface{}{q.Network, q.Repository, q.Method, q.Filters}
	if q.Ident != "" {
		query = "ident = ?"
		args = []interface{}{q.Ident}
	}

	if len(q.Statuses) > 0 {
		query += " AND status IN ?"
		args = append(args, q.Statuses)
	}
	if !q.Since.IsZero() {
		query += " AND log_date > ?"
		args = append(args, q.Since)
	}

	return findOne[models.ScrapeRecord](ctx, s, models.KindRecord, "log_date DESC, id DESC", query, args...)
}

// SaveRecord inserts or updates a scrape record
func (s *GormStore) SaveRecord(ctx context.Context, record *models.ScrapeRecord) error {
	if err := s.EnsureSchema(ctx, models.KindRecord); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save scrape record: %w", err)
	}
	return nil
}

// FindPost looks up a post by its natural key
func (s *GormStore) FindPost(ctx context.Context, network, externalID string) (*models.Post, error) {
	return findOne[models.Post](ctx, s, models.KindPost, "", "network = ? AND external_id = ?", network, externalID)
}

// LatestPost returns the most recently created post of a network
func (s *GormStore) LatestPost(ctx context.Context, network string) (*models.Post, error) {
	return findOne[models.Post](ctx, s, models.KindPost, "created_date DESC, id DESC", "network = ?", network)
}

// CreatePost inserts a new post
func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	return s.create(ctx, models.KindPost, post)
}

// FindUser looks up a user by its natural key
func (s *GormStore) FindUser(ctx context.Context, network, externalID string) (*models.User, error) {
	return findOne[models.User](ctx, s, models.KindUser, "", "network = ? AND external_id = ?", network, externalID)
}

// CreateUser inserts a new user
func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.create(ctx, models.KindUser, user)
}

// FindTag looks up a tag by its lowercased text
func (s *GormStore) FindTag(ctx context.Context, network, externalID string) (*models.Tag, error) {
	return findOne[models.Tag](ctx, s, models.KindTag, "", "network = ? AND external_id = ?", network, externalID)
}

// CreateTag inserts a new tag
func (s *GormStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	return s.create(ctx, models.KindTag, tag)
}

// Count returns the number of rows of kind, optionally filtered by network
func (s *GormStore) Count(ctx context.Context, kind models.Kind, network string) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	if !s.HasSchema(ctx, kind) {
		return 0, nil
	}

	var count int64
	tx := s.db.WithContext(ctx).Model(model)
	if network != "" {
		tx = tx.Where("network = ?", network)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return count, nil
}
