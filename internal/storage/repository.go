package storage

import (
	"context"
	"errors"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Scheduled post operations
	CreateScheduledPost(ctx context.Context, post *models.ScheduledPost) error
	// CreateScheduledPostWithPolicy persists a post and its recurrence policy
	// in a single transaction; a policy write failure leaves no orphan post.
	CreateScheduledPostWithPolicy(ctx context.Context, post *models.ScheduledPost, policy *models.RecurrencePolicy) error
	GetScheduledPost(ctx context.Context, id uint) (*models.ScheduledPost, error)
	// ListUpcoming returns pending posts with a publish instant still in the
	// future, ordered by publish_at ascending.
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error)
	// FindDue returns pending posts whose publish instant has passed, ordered
	// by priority descending then publish_at ascending.
	FindDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	UpdateScheduledPost(ctx context.Context, post *models.ScheduledPost) error

	// Recurrence policy operations
	CreateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error
	FindActiveRecurrence(ctx context.Context, scheduledPostID uint) (*models.RecurrencePolicy, error)
	UpdateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error
	// RolloverRecurrence persists the next occurrence and repoints the policy
	// at it in a single transaction, so the policy never references a
	// completed post without its successor existing.
	RolloverRecurrence(ctx context.Context, policy *models.RecurrencePolicy, next *models.ScheduledPost) error

	// Maintenance
	Close() error
	Migrate() error
}

// ErrNotFound is returned when a requested record does not exist.
// Concrete repositories translate their driver's not-found error to this.
var ErrNotFound = errors.New("record not found")
