package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.ScheduledPost{},
		&models.RecurrencePolicy{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Scheduled post operations

func (r *Repository) CreateScheduledPost(ctx context.Context, post *models.ScheduledPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// CreateScheduledPostWithPolicy persists a post and its recurrence policy
// atomically, so a policy write failure cannot leave a policyless post behind.
func (r *Repository) CreateScheduledPostWithPolicy(ctx context.Context, post *models.ScheduledPost, policy *models.RecurrencePolicy) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		policy.ScheduledPostID = post.ID
		return tx.Create(policy).Error
	})
}

func (r *Repository) GetScheduledPost(ctx context.Context, id uint) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *Repository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	query := r.db.WithContext(ctx).
		Where("status = ? AND publish_at > ?", models.PostStatusPending, now).
		Order("publish_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *Repository) FindDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	if err := r.db.WithContext(ctx).
		Where("status = ? AND publish_at <= ?", models.PostStatusPending, now).
		Order("priority DESC").
		Order("publish_at ASC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *Repository) UpdateScheduledPost(ctx context.Context, post *models.ScheduledPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Recurrence policy operations

func (r *Repository) CreateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

func (r *Repository) FindActiveRecurrence(ctx context.Context, scheduledPostID uint) (*models.RecurrencePolicy, error) {
	var policy models.RecurrencePolicy
	if err := r.db.WithContext(ctx).
		Where("scheduled_post_id = ? AND is_active = ?", scheduledPostID, true).
		First(&policy).Error; err != nil {
		return nil, translate(err)
	}
	return &policy, nil
}

func (r *Repository) UpdateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}

// RolloverRecurrence creates the next occurrence and repoints the policy at
// it atomically, so the policy never dangles on a finished post.
func (r *Repository) RolloverRecurrence(ctx context.Context, policy *models.RecurrencePolicy, next *models.ScheduledPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		policy.ScheduledPostID = next.ID
		return tx.Save(policy).Error
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
