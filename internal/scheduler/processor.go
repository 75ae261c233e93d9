package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/internal/recurrence"
	"github.com/limonhassan606/SocialAutoPoster/internal/social"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

// Processor publishes due posts. It is designed for at-most-one concurrent
// invocation; the external trigger (a single cron entry) must prevent
// overlapping runs against the same store.
type Processor struct {
	repo       storage.Repository
	dispatcher *social.Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

// NewProcessor creates a due-post processor
func NewProcessor(repo storage.Repository, dispatcher *social.Dispatcher, log *logger.Logger) *Processor {
	return &Processor{
		repo:       repo,
		dispatcher: dispatcher,
		log:        log.WithComponent("processor"),
		now:        time.Now,
	}
}

// WithClock substitutes the time source, for tests
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// PostError records a post that failed at the dispatch level
type PostError struct {
	PostID uint   `json:"post_id"`
	Error  string `json:"error"`
}

// ProcessResult aggregates one batch run
type ProcessResult struct {
	Processed  int         `json:"processed"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Errors     []PostError `json:"errors,omitempty"`
}

// ProcessDue publishes every due post, highest priority first and stalest
// first within equal priority. Per-platform failures live in each post's
// result payload; only dispatch-level failures appear in the returned
// error list. Store errors propagate uncaught.
func (p *Processor) ProcessDue(ctx context.Context) (*ProcessResult, error) {
	now := p.now().UTC()
	posts, err := p.repo.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due posts: %w", err)
	}

	result := &ProcessResult{}
	for _, post := range posts {
		result.Processed++
		if err := p.processPost(ctx, post); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, PostError{PostID: post.ID, Error: err.Error()})
			continue
		}
		result.Successful++
	}

	p.log.Info().
		Int("processed", result.Processed).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("Due-post batch completed")

	return result, nil
}

func (p *Processor) processPost(ctx context.Context, post *models.ScheduledPost) error {
	log := p.log.WithPostID(post.ID)

	op := social.OpShare
	mediaURL := ""
	if post.HasMedia() {
		mediaURL = post.MediaURL
		if post.MediaType == models.MediaTypeVideo {
			op = social.OpShareVideo
		} else {
			op = social.OpShareImage
		}
	}

	dispatch, err := p.dispatcher.Dispatch(ctx, post.Platforms, op, post.Content, mediaURL)
	if err != nil {
		p.markFailed(ctx, post, err.Error())
		return err
	}

	// A dispatch where every platform failed is a failed post, not a
	// published one with a bad payload.
	if dispatch.AllFailed() {
		msg := fmt.Sprintf("all %d platform deliveries failed: %s", dispatch.TotalCount, joinPlatformErrors(dispatch.Errors))
		post.Result = dispatch.AsJSON()
		p.markFailed(ctx, post, msg)
		return errors.New(msg)
	}

	now := p.now().UTC()
	post.Status = models.PostStatusPublished
	post.PublishedAt = &now
	post.Result = dispatch.AsJSON()
	if err := p.repo.UpdateScheduledPost(ctx, post); err != nil {
		return fmt.Errorf("failed to record publish outcome: %w", err)
	}

	log.Info().
		Int("success_count", dispatch.SuccessCount).
		Int("error_count", dispatch.ErrorCount).
		Msg("Post published")

	p.rollRecurrence(ctx, post)
	return nil
}

// rollRecurrence generates the next occurrence for a just-published post.
// The next run is advanced from "now", not from the stale next-run, so late
// batches do not produce catch-up bursts. Rollover problems are logged, not
// surfaced: the occurrence itself was delivered.
func (p *Processor) rollRecurrence(ctx context.Context, post *models.ScheduledPost) {
	log := p.log.WithPostID(post.ID)

	policy, err := p.repo.FindActiveRecurrence(ctx, post.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up recurrence policy")
		return
	}

	now := p.now().UTC()
	if policy.Exhausted(now) {
		policy.IsActive = false
		if err := p.repo.UpdateRecurrencePolicy(ctx, policy); err != nil {
			log.Error().Err(err).Msg("Failed to deactivate exhausted recurrence")
		}
		return
	}

	nextRun, err := recurrence.Advance(policy.Cadence, policy.TimeOfDay, policy.Timezone, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute next occurrence")
		return
	}

	clone := &models.ScheduledPost{
		Platforms: post.Platforms,
		Content:   post.Content,
		MediaURL:  post.MediaURL,
		MediaType: post.MediaType,
		PublishAt: nextRun,
		Timezone:  post.Timezone,
		Priority:  post.Priority,
		Metadata:  post.Metadata,
		Status:    models.PostStatusPending,
	}
	policy.LastRunAt = &now
	policy.NextRunAt = &nextRun

	if err := p.repo.RolloverRecurrence(ctx, policy, clone); err != nil {
		log.Error().Err(err).Msg("Failed to roll recurrence forward")
		return
	}

	log.Info().
		Uint("next_post_id", clone.ID).
		Time("next_run", nextRun).
		Msg("Recurrence rolled forward")
}

func (p *Processor) markFailed(ctx context.Context, post *models.ScheduledPost, message string) {
	post.Status = models.PostStatusFailed
	post.Error = message
	if err := p.repo.UpdateScheduledPost(ctx, post); err != nil {
		p.log.Error().Err(err).Uint("post_id", post.ID).Msg("Failed to record failure outcome")
	}
}

func joinPlatformErrors(errs map[string]string) string {
	platforms := make([]string, 0, len(errs))
	for platform := range errs {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	parts := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		parts = append(parts, fmt.Sprintf("%s: %s", platform, errs[platform]))
	}
	return strings.Join(parts, "; ")
}
