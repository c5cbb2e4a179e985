package repository

import (
	"context"
	"testing"

	"blog_api/internal/common"
	"blog_api/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) (*MemoryStore, model.User) {
	t.Helper()
	store := NewMemoryStore()
	author := model.User{ID: "u1", Email: "a@x.com", Role: model.RoleAdmin}
	require.NoError(t, store.Users().Create(context.Background(), &author))
	return store, author
}

func TestMemoryStore_UniqueEmail(t *testing.T) {
	store, _ := seedMemory(t)

	err := store.Users().Create(context.Background(), &model.User{ID: "u2", Email: "a@x.com"})
	assert.ErrorIs(t, err, common.ErrConflict)

	existing, err := store.Users().FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", existing.ID)

	other := model.User{ID: "u3", Email: "b@x.com"}
	require.NoError(t, store.Users().Create(context.Background(), &other))
	other.Email = "a@x.com"
	assert.ErrorIs(t, store.Users().Update(context.Background(), &other), common.ErrConflict)
}

func TestMemoryStore_PostListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	store, author := seedMemory(t)

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, store.Posts().Create(ctx, &model.Post{ID: id, Slug: id, Title: id, Author: author}))
	}

	posts, total, err := store.Posts().List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "p3", posts[0].ID)
	assert.Equal(t, "p2", posts[1].ID)
	assert.Equal(t, "a@x.com", posts[0].Author.Email)

	posts, _, err = store.Posts().List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)

	posts, _, err = store.Posts().List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestMemoryStore_DeletePostCascadesComments(t *testing.T) {
	ctx := context.Background()
	store, author := seedMemory(t)

	require.NoError(t, store.Posts().Create(ctx, &model.Post{ID: "p1", Slug: "p1", Author: author}))
	require.NoError(t, store.Posts().Create(ctx, &model.Post{ID: "p2", Slug: "p2", Author: author}))
	require.NoError(t, store.Comments().Create(ctx, &model.Comment{ID: "c1", PostID: "p1", Author: author}))
	require.NoError(t, store.Comments().Create(ctx, &model.Comment{ID: "c2", PostID: "p1", Author: author}))
	require.NoError(t, store.Comments().Create(ctx, &model.Comment{ID: "c3", PostID: "p2", Author: author}))

	require.NoError(t, store.Posts().Delete(ctx, "p1"))

	comments, err := store.Comments().ListByPost(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = store.Comments().FindByID(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	remaining, err := store.Comments().ListByPost(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assert.ErrorIs(t, store.Posts().Delete(ctx, "p1"), common.ErrNotFound)
}

func TestMemoryStore_PostUpdateKeepsAuthor(t *testing.T) {
	ctx := context.Background()
	store, author := seedMemory(t)
	require.NoError(t, store.Users().Create(ctx, &model.User{ID: "u2", Email: "b@x.com"}))

	post := &model.Post{ID: "p1", Slug: "p1", Title: "old", Author: author}
	require.NoError(t, store.Posts().Create(ctx, post))

	post.Title = "new"
	post.Author = model.User{ID: "u2"}
	require.NoError(t, store.Posts().Update(ctx, post))

	stored, err := store.Posts().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Title)
	assert.Equal(t, "u1", stored.Author.ID)
}

func TestMemoryStore_CommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, author := seedMemory(t)
	require.NoError(t, store.Posts().Create(ctx, &model.Post{ID: "p1", Slug: "p1", Author: author}))

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, store.Comments().Create(ctx, &model.Comment{ID: id, PostID: "p1", Author: author}))
	}

	comments, err := store.Comments().ListByPost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []string{"c3", "c2", "c1"}, []string{comments[0].ID, comments[1].ID, comments[2].ID})
}

func TestMemoryStore_PostListNegativeOffset(t *testing.T) {
	ctx := context.Background()
	store, author := seedMemory(t)
	require.NoError(t, store.Posts().Create(ctx, &model.Post{ID: "p1", Slug: "p1", Title: "p1", Author: author}))

	posts, total, err := store.Posts().List(ctx, 10, -1000)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, posts, 1)
}
