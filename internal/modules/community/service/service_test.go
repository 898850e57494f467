package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/community/dto"
	"anoa.com/pencraft/internal/modules/community/repository"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostCounter map[uuid.UUID]int64

func (f fakePostCounter) CountByCommunity(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64)
	for _, id := range ids {
		if n, ok := f[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
	fail error
}

func (r *recordingNotifier) CreateNotification(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, *n)
	return nil
}

type fixture struct {
	repo     repository.CommunityRepository
	users    userRepo.UserRepository
	notifier *recordingNotifier
	events   *events.Recorder
	posts    fakePostCounter
	svc      CommunityService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     repository.NewMemoryCommunityRepository(),
		users:    userRepo.NewMemoryUserRepository(),
		notifier: &recordingNotifier{},
		events:   events.NewRecorder(),
		posts:    fakePostCounter{},
	}
	f.svc = NewCommunityService(f.repo, f.users, f.posts, f.notifier, f.events)
	return f
}

func (f *fixture) user(t *testing.T, name string) *entity.User {
	t.Helper()
	u := &entity.User{Username: name, Email: name + "@example.com", FirstName: name}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestCreateCommunityMakesCreatorModerator(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "sarah")

	resp, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{
		Name:     "Tech Enthusiasts",
		Category: "technology",
		Rules:    []string{"Be respectful", " "},
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{creator.ID}, resp.Members)
	assert.Equal(t, []uuid.UUID{creator.ID}, resp.Moderators)
	assert.Equal(t, 1, resp.MemberCount)
	assert.True(t, resp.IsJoined)
	assert.Equal(t, []string{"Be respectful"}, resp.Rules)
	assert.Equal(t, "sarah", resp.Creator.Username)

	_, err = f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Tech Enthusiasts"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "  "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestJoinIsRejectedForExistingMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "sarah")
	joiner := f.user(t, "mike")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Food Lovers"})
	require.NoError(t, err)

	joined, err := f.svc.Join(ctx, created.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, joined.IsJoined)
	assert.Equal(t, 2, joined.MemberCount)
	assert.Equal(t, []uuid.UUID{creator.ID}, joined.Moderators)

	_, err = f.svc.Join(ctx, created.ID, joiner.ID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyMember)

	again, err := f.svc.GetCommunity(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.MemberCount)
	assert.False(t, again.IsJoined)

	ids, err := f.repo.CommunityIDsByUser(ctx, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{created.ID}, ids)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, creator.ID, f.notifier.sent[0].UserID)
	assert.Equal(t, entity.NotificationOther, f.notifier.sent[0].Type)
	assert.Equal(t, []string{events.CommunityJoined}, f.events.Subjects())
}

func TestCreatorJoiningDoesNotNotifySelf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "solo")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Solo"})
	require.NoError(t, err)

	_, err = f.svc.Leave(ctx, created.ID, creator.ID)
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, created.ID, creator.ID)
	require.NoError(t, err)

	assert.Empty(t, f.notifier.sent)
}

func TestLeaveIsNoopForNonMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "sarah")
	stranger := f.user(t, "stranger")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Travel"})
	require.NoError(t, err)

	resp, err := f.svc.Leave(ctx, created.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.MemberCount)
	assert.Empty(t, f.events.Subjects())

	_, err = f.svc.Join(ctx, created.ID, stranger.ID)
	require.NoError(t, err)
	resp, err = f.svc.Leave(ctx, created.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.MemberCount)
	assert.False(t, resp.IsJoined)
	assert.Equal(t, []string{events.CommunityJoined, events.CommunityLeft}, f.events.Subjects())
}

func TestJoinAndLeaveUnknownCommunity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "lost")

	_, err := f.svc.Join(ctx, uuid.New(), u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Leave(ctx, uuid.New(), u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	created, err := f.svc.CreateCommunity(ctx, u.ID, dto.CreateCommunityRequest{Name: "Real"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, created.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListCommunitiesWithCountsAndFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "sarah")

	tech, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Tech", Category: "technology"})
	require.NoError(t, err)
	_, err = f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Health", Category: "health"})
	require.NoError(t, err)
	f.posts[tech.ID] = 7

	all, err := f.svc.ListCommunities(ctx, nil, dto.CommunityFilter{Category: "all"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tech", all[0].Name)
	assert.EqualValues(t, 7, all[0].Posts)
	assert.EqualValues(t, 0, all[1].Posts)

	healthOnly, err := f.svc.ListCommunities(ctx, &creator.ID, dto.CommunityFilter{Category: "health"})
	require.NoError(t, err)
	require.Len(t, healthOnly, 1)
	assert.True(t, healthOnly[0].IsJoined)
}

func TestMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "sarah")
	member := f.user(t, "mike")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Readers"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, created.ID, member.ID)
	require.NoError(t, err)

	members, err := f.svc.Members(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "sarah", members[0].Username)
	assert.Equal(t, "moderator", members[0].Role)
	assert.Equal(t, "mike", members[1].Username)
	assert.Equal(t, "member", members[1].Role)
}

func TestConcurrentJoinsAddEachUserOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "host")
	guest := f.user(t, "guest")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Busy"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Join(ctx, created.ID, guest.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	members, err := f.repo.FindMembers(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestJoinLogsNotificationFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator := f.user(t, "owner")
	joiner := f.user(t, "joiner")

	created, err := f.svc.CreateCommunity(ctx, creator.ID, dto.CreateCommunityRequest{Name: "Readers", Category: "education"})
	require.NoError(t, err)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f.notifier.fail = errors.New("notification store down")

	joined, err := f.svc.Join(ctx, created.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, joined.IsJoined)
	assert.Contains(t, buf.String(), "failed to create notification")
	assert.Contains(t, buf.String(), "notification store down")
}
