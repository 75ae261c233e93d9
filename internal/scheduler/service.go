// Package scheduler contains the deferred-publishing core: the post builder
// that validates and persists scheduled posts, and the due-post processor
// that fans them out to platforms and rolls recurrences forward.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

// Service is the entry point for creating and inspecting scheduled posts
type Service struct {
	repo storage.Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a scheduling service
func NewService(repo storage.Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.WithComponent("scheduler"),
		now:  time.Now,
	}
}

// WithClock substitutes the time source, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NewPost starts a fluent specification for a new scheduled post
func (s *Service) NewPost() *PostBuilder {
	return &PostBuilder{svc: s, priority: defaultPriority}
}

// Upcoming returns pending posts whose publish instant is still in the
// future, soonest first, bounded by limit.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	return s.repo.ListUpcoming(ctx, s.now().UTC(), limit)
}

// Cancel marks a pending post cancelled. Cancellation is a status flag, not
// removal, and is only reachable from pending.
func (s *Service) Cancel(ctx context.Context, id uint) error {
	post, err := s.repo.GetScheduledPost(ctx, id)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusPending {
		return fmt.Errorf("cannot cancel post %d in status %q", id, post.Status)
	}
	post.Status = models.PostStatusCancelled
	if err := s.repo.UpdateScheduledPost(ctx, post); err != nil {
		return err
	}
	s.log.Info().Uint("post_id", id).Msg("Post cancelled")
	return nil
}
