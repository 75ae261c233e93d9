package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

func newTestProcessor(repo *memRepo, pubs map[string]*stubPublisher, now time.Time) *Processor {
	return NewProcessor(repo, newTestDispatcher(pubs), logger.Default()).WithClock(fixedClock(now))
}

func TestProcessDue_PublishesAndRollsRecurrence(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	receipt, err := svc.NewPost().
		Platforms("facebook", "twitter").
		Content("daily digest").
		PublishAt(testNow.Add(time.Hour)). // 09:00
		Recurring(models.CadenceDaily, "10:00").
		Save(ctx)
	require.NoError(t, err)

	facebook := &stubPublisher{}
	twitter := &stubPublisher{}
	runAt := testNow.Add(90 * time.Minute) // 09:30, post is due
	proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": facebook, "twitter": twitter}, runAt)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)

	post, err := repo.GetScheduledPost(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, post.PublishedAt.Equal(runAt))
	require.NotNil(t, post.Result)
	assert.Equal(t, 2, post.Result["success_count"])

	assert.Equal(t, []string{"share"}, facebook.ops)
	assert.Equal(t, []string{"share"}, twitter.ops)

	// The recurrence produced tomorrow's occurrence at the policy time.
	pending := repo.pendingPosts()
	require.Len(t, pending, 1)
	next := pending[0]
	assert.NotEqual(t, receipt.ID, next.ID)
	assert.Equal(t, "daily digest", next.Content)
	assert.Equal(t, post.Platforms, next.Platforms)
	assert.True(t, next.PublishAt.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))

	// The policy now tracks the successor.
	policy, err := repo.FindActiveRecurrence(ctx, next.ID)
	require.NoError(t, err)
	require.NotNil(t, policy.LastRunAt)
	assert.True(t, policy.LastRunAt.Equal(runAt))
	require.NotNil(t, policy.NextRunAt)
	assert.True(t, policy.NextRunAt.Equal(next.PublishAt))
}

func TestProcessDue_AllPlatformsFailed(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	post := &models.ScheduledPost{
		Platforms: []string{"facebook", "twitter"},
		Content:   "doomed",
		PublishAt: testNow.Add(-time.Minute),
		Status:    models.PostStatusPending,
	}
	require.NoError(t, repo.CreateScheduledPost(ctx, post))
	require.NoError(t, repo.CreateRecurrencePolicy(ctx, &models.RecurrencePolicy{
		ScheduledPostID: post.ID,
		Cadence:         models.CadenceDaily,
		TimeOfDay:       "10:00",
		Timezone:        "UTC",
		IsActive:        true,
	}))

	proc := newTestProcessor(repo, map[string]*stubPublisher{
		"facebook": {fail: true},
		"twitter":  {fail: true},
	}, testNow)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, post.ID, result.Errors[0].PostID)
	assert.Contains(t, result.Errors[0].Error, "all 2 platform deliveries failed")

	stored, _ := repo.GetScheduledPost(ctx, post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "delivery rejected")
	require.NotNil(t, stored.Result, "per-platform outcomes are kept for inspection")

	// A failed occurrence does not generate the next one.
	assert.Empty(t, repo.pendingPosts())
}

func TestProcessDue_PartialFailureStillPublishes(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	post := &models.ScheduledPost{
		Platforms: []string{"facebook", "twitter"},
		Content:   "mixed",
		PublishAt: testNow.Add(-time.Minute),
		Status:    models.PostStatusPending,
	}
	require.NoError(t, repo.CreateScheduledPost(ctx, post))

	proc := newTestProcessor(repo, map[string]*stubPublisher{
		"facebook": {},
		"twitter":  {fail: true},
	}, testNow)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)

	stored, _ := repo.GetScheduledPost(ctx, post.ID)
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	assert.Equal(t, 1, stored.Result["success_count"])
	assert.Equal(t, 1, stored.Result["error_count"])
}

func TestProcessDue_HighestPriorityFirst(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	for _, p := range []struct {
		content  string
		priority int
	}{
		{"low", 3},
		{"high", 9},
		{"mid", 5},
	} {
		require.NoError(t, repo.CreateScheduledPost(ctx, &models.ScheduledPost{
			Platforms: []string{"facebook"},
			Content:   p.content,
			Priority:  p.priority,
			PublishAt: testNow.Add(-time.Minute),
			Status:    models.PostStatusPending,
		}))
	}

	facebook := &stubPublisher{}
	proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": facebook}, testNow)

	_, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid", "low"}, facebook.captions)
}

func TestProcessDue_SkipsFuturePosts(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	require.NoError(t, repo.CreateScheduledPost(ctx, &models.ScheduledPost{
		Platforms: []string{"facebook"},
		Content:   "later",
		PublishAt: testNow.Add(time.Hour),
		Status:    models.PostStatusPending,
	}))

	facebook := &stubPublisher{}
	proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": facebook}, testNow)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, facebook.ops)
}

func TestProcessDue_ExhaustedRecurrenceDeactivated(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	post := &models.ScheduledPost{
		Platforms: []string{"facebook"},
		Content:   "last run",
		PublishAt: testNow.Add(-time.Minute),
		Status:    models.PostStatusPending,
	}
	require.NoError(t, repo.CreateScheduledPost(ctx, post))
	until := testNow.Add(-time.Second)
	policy := &models.RecurrencePolicy{
		ScheduledPostID: post.ID,
		Cadence:         models.CadenceDaily,
		TimeOfDay:       "10:00",
		Timezone:        "UTC",
		Until:           &until,
		IsActive:        true,
	}
	require.NoError(t, repo.CreateRecurrencePolicy(ctx, policy))

	proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": {}}, testNow)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)

	assert.False(t, policy.IsActive, "past-cutoff policy is retired")
	assert.Empty(t, repo.pendingPosts(), "no occurrence beyond the cutoff")
}

func TestProcessDue_MediaSelectsOperation(t *testing.T) {
	tests := []struct {
		name      string
		mediaURL  string
		mediaType models.MediaType
		wantOp    string
	}{
		{"text only", "", "", "share"},
		{"image", "https://example.com/pic.jpg", models.MediaTypeImage, "share_image"},
		{"document", "https://example.com/report.pdf", models.MediaTypeDocument, "share_image"},
		{"video", "https://example.com/clip.mp4", models.MediaTypeVideo, "share_video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			ctx := context.Background()
			require.NoError(t, repo.CreateScheduledPost(ctx, &models.ScheduledPost{
				Platforms: []string{"facebook"},
				Content:   "media post",
				MediaURL:  tt.mediaURL,
				MediaType: tt.mediaType,
				PublishAt: testNow.Add(-time.Minute),
				Status:    models.PostStatusPending,
			}))

			facebook := &stubPublisher{}
			proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": facebook}, testNow)

			_, err := proc.ProcessDue(ctx)
			require.NoError(t, err)
			require.Len(t, facebook.ops, 1)
			assert.Equal(t, tt.wantOp, facebook.ops[0])
		})
	}
}

func TestProcessDue_UnknownPlatformCountsAsPlatformError(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	post := &models.ScheduledPost{
		Platforms: []string{"facebook", "myspace"},
		Content:   "hello",
		PublishAt: testNow.Add(-time.Minute),
		Status:    models.PostStatusPending,
	}
	require.NoError(t, repo.CreateScheduledPost(ctx, post))

	proc := newTestProcessor(repo, map[string]*stubPublisher{"facebook": {}}, testNow)

	result, err := proc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)

	stored, _ := repo.GetScheduledPost(ctx, post.ID)
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	assert.Equal(t, 1, stored.Result["error_count"])
}
