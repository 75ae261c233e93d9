package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/internal/social"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

// memRepo is an in-memory storage.Repository for scheduler tests
type memRepo struct {
	posts        map[uint]*models.ScheduledPost
	policies     map[uint]*models.RecurrencePolicy
	nextPostID   uint
	nextPolicyID uint

	policyErr error // injected policy write failure
}

func newMemRepo() *memRepo {
	return &memRepo{
		posts:    make(map[uint]*models.ScheduledPost),
		policies: make(map[uint]*models.RecurrencePolicy),
	}
}

func (m *memRepo) CreateScheduledPost(ctx context.Context, post *models.ScheduledPost) error {
	m.nextPostID++
	post.ID = m.nextPostID
	m.posts[post.ID] = post
	return nil
}

func (m *memRepo) CreateScheduledPostWithPolicy(ctx context.Context, post *models.ScheduledPost, policy *models.RecurrencePolicy) error {
	if m.policyErr != nil {
		return m.policyErr
	}
	if err := m.CreateScheduledPost(ctx, post); err != nil {
		return err
	}
	policy.ScheduledPostID = post.ID
	return m.CreateRecurrencePolicy(ctx, policy)
}

func (m *memRepo) GetScheduledPost(ctx context.Context, id uint) (*models.ScheduledPost, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return post, nil
}

func (m *memRepo) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for _, post := range m.posts {
		if post.Status == models.PostStatusPending && post.PublishAt.After(now) {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishAt.Before(posts[j].PublishAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *memRepo) FindDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for _, post := range m.posts {
		if post.Status == models.PostStatusPending && !post.PublishAt.After(now) {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Priority != posts[j].Priority {
			return posts[i].Priority > posts[j].Priority
		}
		if !posts[i].PublishAt.Equal(posts[j].PublishAt) {
			return posts[i].PublishAt.Before(posts[j].PublishAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (m *memRepo) UpdateScheduledPost(ctx context.Context, post *models.ScheduledPost) error {
	if _, ok := m.posts[post.ID]; !ok {
		return storage.ErrNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *memRepo) CreateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error {
	m.nextPolicyID++
	policy.ID = m.nextPolicyID
	m.policies[policy.ID] = policy
	return nil
}

func (m *memRepo) FindActiveRecurrence(ctx context.Context, scheduledPostID uint) (*models.RecurrencePolicy, error) {
	for _, policy := range m.policies {
		if policy.ScheduledPostID == scheduledPostID && policy.IsActive {
			return policy, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memRepo) UpdateRecurrencePolicy(ctx context.Context, policy *models.RecurrencePolicy) error {
	if _, ok := m.policies[policy.ID]; !ok {
		return storage.ErrNotFound
	}
	m.policies[policy.ID] = policy
	return nil
}

func (m *memRepo) RolloverRecurrence(ctx context.Context, policy *models.RecurrencePolicy, next *models.ScheduledPost) error {
	if err := m.CreateScheduledPost(ctx, next); err != nil {
		return err
	}
	policy.ScheduledPostID = next.ID
	return m.UpdateRecurrencePolicy(ctx, policy)
}

func (m *memRepo) Close() error   { return nil }
func (m *memRepo) Migrate() error { return nil }

// pendingPosts returns the pending posts in the store, publish_at ascending
func (m *memRepo) pendingPosts() []*models.ScheduledPost {
	var posts []*models.ScheduledPost
	for _, post := range m.posts {
		if post.Status == models.PostStatusPending {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishAt.Before(posts[j].PublishAt)
	})
	return posts
}

// stubPublisher records deliveries for assertion and can be made to fail
type stubPublisher struct {
	fail     bool
	ops      []string
	captions []string
}

func (s *stubPublisher) Share(ctx context.Context, caption, link string) (models.JSON, error) {
	return s.record("share", caption)
}

func (s *stubPublisher) ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error) {
	return s.record("share_image", caption)
}

func (s *stubPublisher) ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error) {
	return s.record("share_video", caption)
}

func (s *stubPublisher) record(op, caption string) (models.JSON, error) {
	s.ops = append(s.ops, op)
	s.captions = append(s.captions, caption)
	if s.fail {
		return nil, &social.DeliveryError{Message: "delivery rejected"}
	}
	return models.JSON{"id": "remote-1"}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestDispatcher(pubs map[string]*stubPublisher) *social.Dispatcher {
	d := social.NewDispatcher(logger.Default())
	for name, pub := range pubs {
		d.Register(name, pub)
	}
	return d
}
