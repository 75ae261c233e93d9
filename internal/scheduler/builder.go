package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/internal/recurrence"
)

const defaultPriority = 5

// ValidationError reports a bad scheduling spec, naming the violated rule.
// Validation errors are surfaced to the caller immediately and are never
// persisted as a post.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Receipt confirms a persisted scheduled post
type Receipt struct {
	ID        uint      `json:"id"`
	PublishAt time.Time `json:"publish_at"`
	Platforms []string  `json:"platforms"`
	Recurring bool      `json:"recurring"`
}

// PostBuilder accumulates a scheduling spec through chained setters and
// persists it with Save. Setter-level violations (priority range, cadence,
// time-of-day format) are captured at the setter and surfaced by Save before
// any other validation runs.
type PostBuilder struct {
	svc *Service
	err error

	platforms      []string
	content        string
	mediaURL       string
	mediaType      models.MediaType
	publishAt      time.Time
	timezone       string
	recurringType  models.Cadence
	recurringTime  string
	recurringUntil *time.Time
	priority       int
	metadata       models.JSON
}

// Platforms sets the delivery targets
func (b *PostBuilder) Platforms(platforms ...string) *PostBuilder {
	b.platforms = platforms
	return b
}

// Content sets the post text
func (b *PostBuilder) Content(content string) *PostBuilder {
	b.content = content
	return b
}

// Media attaches a media reference. An empty media type defaults to image.
func (b *PostBuilder) Media(url string, mediaType models.MediaType) *PostBuilder {
	if mediaType == "" {
		mediaType = models.MediaTypeImage
	}
	b.mediaURL = url
	b.mediaType = mediaType
	return b
}

// PublishAt sets the publish instant
func (b *PostBuilder) PublishAt(t time.Time) *PostBuilder {
	b.publishAt = t
	return b
}

// Timezone sets the originating timezone, kept for display and recurrence
// computation; storage is always UTC.
func (b *PostBuilder) Timezone(tz string) *PostBuilder {
	b.timezone = tz
	return b
}

// Recurring requests automatic re-creation at the given cadence and
// local time-of-day ("HH:MM")
func (b *PostBuilder) Recurring(cadence models.Cadence, timeOfDay string) *PostBuilder {
	if !cadence.Valid() {
		b.fail("cadence", fmt.Sprintf("invalid recurring cadence %q: must be one of daily, weekly, monthly", cadence))
		return b
	}
	if _, _, err := recurrence.ParseTimeOfDay(timeOfDay); err != nil {
		b.fail("time_of_day", err.Error())
		return b
	}
	b.recurringType = cadence
	b.recurringTime = timeOfDay
	return b
}

// Until sets the recurrence cutoff instant
func (b *PostBuilder) Until(t time.Time) *PostBuilder {
	b.recurringUntil = &t
	return b
}

// Priority sets the dispatch priority (1-10, higher served first).
// Out-of-range values are rejected here, not deferred to Save.
func (b *PostBuilder) Priority(priority int) *PostBuilder {
	if priority < 1 || priority > 10 {
		b.fail("priority", fmt.Sprintf("priority must be between 1 and 10, got %d", priority))
		return b
	}
	b.priority = priority
	return b
}

// Metadata merges free-form key-value pairs into the post metadata
func (b *PostBuilder) Metadata(metadata map[string]interface{}) *PostBuilder {
	if b.metadata == nil {
		b.metadata = models.JSON{}
	}
	for k, v := range metadata {
		b.metadata[k] = v
	}
	return b
}

// Save validates the spec, persists the scheduled post (publish instant
// stored in UTC) and, when a recurrence was requested, its policy with the
// next-run seeded from "now" in the policy timezone. Post and policy are
// written in one transaction.
func (b *PostBuilder) Save(ctx context.Context) (*Receipt, error) {
	if b.err != nil {
		return nil, b.err
	}
	now := b.svc.now()
	if err := b.validate(now); err != nil {
		return nil, err
	}

	timezone := b.timezone
	if timezone == "" {
		timezone = "UTC"
	}

	post := &models.ScheduledPost{
		Platforms: b.platforms,
		Content:   b.content,
		MediaURL:  b.mediaURL,
		MediaType: b.mediaType,
		PublishAt: b.publishAt.UTC(),
		Timezone:  timezone,
		Priority:  b.priority,
		Metadata:  b.metadata,
		Status:    models.PostStatusPending,
	}
	recurring := b.recurringType != ""
	if recurring {
		nextRun, err := recurrence.Next(b.recurringType, b.recurringTime, timezone, now)
		if err != nil {
			return nil, err
		}
		policy := &models.RecurrencePolicy{
			Cadence:   b.recurringType,
			TimeOfDay: b.recurringTime,
			Until:     b.recurringUntil,
			Timezone:  timezone,
			NextRunAt: &nextRun,
			IsActive:  true,
		}
		if err := b.svc.repo.CreateScheduledPostWithPolicy(ctx, post, policy); err != nil {
			return nil, fmt.Errorf("failed to save scheduled post: %w", err)
		}
	} else if err := b.svc.repo.CreateScheduledPost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save scheduled post: %w", err)
	}

	b.svc.log.Info().
		Uint("post_id", post.ID).
		Time("publish_at", post.PublishAt).
		Strs("platforms", b.platforms).
		Bool("recurring", recurring).
		Msg("Post scheduled")

	return &Receipt{
		ID:        post.ID,
		PublishAt: post.PublishAt,
		Platforms: b.platforms,
		Recurring: recurring,
	}, nil
}

func (b *PostBuilder) validate(now time.Time) error {
	if len(b.platforms) == 0 {
		return &ValidationError{Rule: "platforms", Message: "at least one platform must be specified"}
	}
	if b.content == "" {
		return &ValidationError{Rule: "content", Message: "content is required"}
	}
	if b.publishAt.IsZero() {
		return &ValidationError{Rule: "publish_at", Message: "publish date/time is required"}
	}
	if !b.publishAt.After(now) {
		return &ValidationError{Rule: "publish_at", Message: "publish date/time must be in the future"}
	}
	return nil
}

// fail records the first setter-level violation; later setters keep chaining
func (b *PostBuilder) fail(rule, message string) {
	if b.err == nil {
		b.err = &ValidationError{Rule: rule, Message: message}
	}
}
