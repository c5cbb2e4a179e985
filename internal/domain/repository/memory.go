package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"blog_api/internal/common"
	"blog_api/internal/domain/model"
)

// MemoryStore keeps users, posts and comments in process memory. It backs
// STORE=memory for local development and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	posts    map[string]memPost
	comments map[string]memComment
	now      func() time.Time
}

// Authors are stored by id and resolved on read, the way the SQL joins do.
type memPost struct {
	post     model.Post
	authorID string
}

type memComment struct {
	comment  model.Comment
	authorID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.User),
		posts:    make(map[string]memPost),
		comments: make(map[string]memComment),
		now:      time.Now,
	}
}

func (s *MemoryStore) Users() UserRepository       { return memUsers{s} }
func (s *MemoryStore) Posts() PostRepository       { return memPosts{s} }
func (s *MemoryStore) Comments() CommentRepository { return memComments{s} }

// tick returns a strictly increasing timestamp so creation order is total.
func (s *MemoryStore) tick(last time.Time) time.Time {
	t := s.now().UTC()
	if !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	return t
}

func (s *MemoryStore) latest() time.Time {
	var last time.Time
	for _, u := range s.users {
		if u.CreatedAt.After(last) {
			last = u.CreatedAt
		}
	}
	for _, p := range s.posts {
		if p.post.CreatedAt.After(last) {
			last = p.post.CreatedAt
		}
	}
	for _, c := range s.comments {
		if c.comment.CreatedAt.After(last) {
			last = c.comment.CreatedAt
		}
	}
	return last
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return common.NewError(common.ErrConflict, "User with this email already exists")
		}
	}
	now := r.s.tick(r.s.latest())
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.NewError(common.ErrNotFound, "User not found")
}

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.NewError(common.ErrNotFound, "User not found")
	}
	return &u, nil
}

func (r memUsers) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r memUsers) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return common.NewError(common.ErrNotFound, "User not found")
	}
	for id, other := range r.s.users {
		if id != user.ID && other.Email == user.Email {
			return common.NewError(common.ErrConflict, "User with this email already exists")
		}
	}
	user.UpdatedAt = r.s.tick(user.UpdatedAt)
	r.s.users[user.ID] = *user
	return nil
}

type memPosts struct{ s *MemoryStore }

func (r memPosts) resolve(p memPost) model.Post {
	post := p.post
	post.Author = r.s.users[p.authorID]
	return post
}

func (r memPosts) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[post.Author.ID]; !ok {
		return common.Errorf("memPosts.Create: unknown author %s", post.Author.ID)
	}
	for _, p := range r.s.posts {
		if p.post.Slug == post.Slug {
			return common.NewError(common.ErrConflict, "Post with this slug already exists")
		}
	}
	now := r.s.tick(r.s.latest())
	post.CreatedAt, post.UpdatedAt = now, now
	r.s.posts[post.ID] = memPost{post: *post, authorID: post.Author.ID}
	post.Author = r.s.users[post.Author.ID]
	return nil
}

func (r memPosts) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.NewError(common.ErrNotFound, "Post not found")
	}
	post := r.resolve(p)
	return &post, nil
}

func (r memPosts) List(_ context.Context, limit, offset int) ([]model.Post, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]model.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		all = append(all, r.resolve(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	offset = max(offset, 0)
	if offset >= total || limit < 1 {
		return []model.Post{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r memPosts) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.posts[post.ID]
	if !ok {
		return common.NewError(common.ErrNotFound, "Post not found")
	}
	for id, p := range r.s.posts {
		if id != post.ID && p.post.Slug == post.Slug {
			return common.NewError(common.ErrConflict, "Post with this slug already exists")
		}
	}
	post.UpdatedAt = r.s.tick(existing.post.UpdatedAt)
	post.CreatedAt = existing.post.CreatedAt
	r.s.posts[post.ID] = memPost{post: *post, authorID: existing.authorID}
	post.Author = r.s.users[existing.authorID]
	return nil
}

func (r memPosts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return common.NewError(common.ErrNotFound, "Post not found")
	}
	delete(r.s.posts, id)
	for cid, c := range r.s.comments {
		if c.comment.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

type memComments struct{ s *MemoryStore }

func (r memComments) resolve(c memComment) model.Comment {
	comment := c.comment
	comment.Author = r.s.users[c.authorID]
	return comment
}

func (r memComments) Create(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[comment.PostID]; !ok {
		return common.Errorf("memComments.Create: unknown post %s", comment.PostID)
	}
	if _, ok := r.s.users[comment.Author.ID]; !ok {
		return common.Errorf("memComments.Create: unknown author %s", comment.Author.ID)
	}
	comment.CreatedAt = r.s.tick(r.s.latest())
	r.s.comments[comment.ID] = memComment{comment: *comment, authorID: comment.Author.ID}
	comment.Author = r.s.users[comment.Author.ID]
	return nil
}

func (r memComments) FindByID(_ context.Context, id string) (*model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.NewError(common.ErrNotFound, "Comment not found")
	}
	comment := r.resolve(c)
	return &comment, nil
}

func (r memComments) ListByPost(_ context.Context, postID string) ([]model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := []model.Comment{}
	for _, c := range r.s.comments {
		if c.comment.PostID == postID {
			comments = append(comments, r.resolve(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments, nil
}

func (r memComments) Update(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.comments[comment.ID]
	if !ok {
		return common.NewError(common.ErrNotFound, "Comment not found")
	}
	existing.comment.Content = comment.Content
	r.s.comments[comment.ID] = existing
	return nil
}

func (r memComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return common.NewError(common.ErrNotFound, "Comment not found")
	}
	delete(r.s.comments, id)
	return nil
}
