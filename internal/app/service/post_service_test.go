package service

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"blog_api/internal/common"
	"blog_api/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := env.register(t, "a@x.com", model.RoleAdmin)
	user := env.register(t, "b@x.com", model.RoleUser)

	_, err := env.posts.Create(ctx, CreatePostRequest{Title: "T", Content: "C"}, user)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, total, err := env.store.Posts().List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	post, err := env.posts.Create(ctx, CreatePostRequest{Title: "Hello World", Content: "C"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", post.Author.Email)
	assert.True(t, strings.HasPrefix(post.Slug, "hello-world-"))
	assert.True(t, strings.HasPrefix(post.ImageURL, "https://source.unsplash.com/random/800x600?technology&sig="))
	assert.False(t, post.IsPublished)
	assert.Nil(t, post.PublishedAt)
}

func TestPostService_SlugsDoNotCollide(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := env.register(t, "a@x.com", model.RoleAdmin)

	first, err := env.posts.Create(ctx, CreatePostRequest{Title: "Same", Content: "C"}, admin)
	require.NoError(t, err)
	second, err := env.posts.Create(ctx, CreatePostRequest{Title: "Same", Content: "C"}, admin)
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)

	_, err = env.posts.Create(ctx, CreatePostRequest{Title: "X", Content: "C", Slug: first.Slug}, admin)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestPostService_OwnershipOnMutation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actorOf func(env *testEnv, owner model.Actor) model.Actor
		wantErr error
	}{
		{
			name:    "owner",
			actorOf: func(_ *testEnv, owner model.Actor) model.Actor { return owner },
		},
		{
			name: "other admin",
			actorOf: func(env *testEnv, _ model.Actor) model.Actor {
				return env.register(t, "admin2@x.com", model.RoleAdmin)
			},
		},
		{
			name: "other user",
			actorOf: func(env *testEnv, _ model.Actor) model.Actor {
				return env.register(t, "b@x.com", model.RoleUser)
			},
			wantErr: common.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			owner := env.register(t, "a@x.com", model.RoleAdmin)
			post, err := env.posts.Create(ctx, CreatePostRequest{Title: "T", Content: "original"}, owner)
			require.NoError(t, err)
			actor := tt.actorOf(env, owner)

			_, err = env.posts.Update(ctx, post.ID, UpdatePostRequest{Content: ptr("edited")}, actor)
			stored, findErr := env.posts.FindOne(ctx, post.ID)
			require.NoError(t, findErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "original", stored.Content)
				assert.ErrorIs(t, env.posts.Remove(ctx, post.ID, actor), tt.wantErr)
				_, err = env.posts.FindOne(ctx, post.ID)
				assert.NoError(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "edited", stored.Content)
			assert.Equal(t, owner.ID, stored.Author.ID)

			require.NoError(t, env.posts.Remove(ctx, post.ID, actor))
			_, err = env.posts.FindOne(ctx, post.ID)
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestPostService_UpdateMissingAndInvalid(t *testing.T) {
	env := newTestEnv(t, false)
	admin := env.register(t, "a@x.com", model.RoleAdmin)

	_, err := env.posts.Update(context.Background(), "00000000-0000-0000-0000-000000000000", UpdatePostRequest{Title: ptr("x")}, admin)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.posts.Update(context.Background(), "not-a-uuid", UpdatePostRequest{Title: ptr("x")}, admin)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestPostService_PublishStampsPublishedAt(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := env.register(t, "a@x.com", model.RoleAdmin)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	env.posts.now = func() time.Time { return fixed }

	post, err := env.posts.Create(ctx, CreatePostRequest{Title: "T", Content: "C"}, admin)
	require.NoError(t, err)
	require.Nil(t, post.PublishedAt)

	post, err = env.posts.Update(ctx, post.ID, UpdatePostRequest{IsPublished: ptr(true)}, admin)
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fixed, *post.PublishedAt)

	post, err = env.posts.Update(ctx, post.ID, UpdatePostRequest{IsPublished: ptr(false)}, admin)
	require.NoError(t, err)
	assert.Nil(t, post.PublishedAt)
}

func TestPostService_FindAllPaging(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	admin := env.register(t, "a@x.com", model.RoleAdmin)

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := env.posts.Create(ctx, CreatePostRequest{Title: "T", Content: "C"}, admin)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	page, err := env.posts.FindAll(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = env.posts.FindAll(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
}

func TestNormalizePaging(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageLimit},
		{-3, 5, 1, 5},
		{2, 1000, 2, MaxPageLimit},
		{4, 25, 4, 25},
		{math.MaxInt, 100, math.MaxInt / 100, 100},
		{92233720368547760, 100, math.MaxInt / 100, 100},
	}
	for _, tt := range tests {
		page, limit := NormalizePaging(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
		assert.GreaterOrEqual(t, (page-1)*limit, 0)
	}
}

func TestPostService_FindAllHugePage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	admin := env.register(t, "admin@x.com", model.RoleAdmin)

	_, err := env.posts.Create(ctx, CreatePostRequest{Title: "T", Content: "C"}, admin)
	require.NoError(t, err)

	page, err := env.posts.FindAll(ctx, math.MaxInt, MaxPageLimit)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
}
