package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"blog_api/internal/common/security"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store    *repository.MemoryStore
	tokens   *security.TokenIssuer
	auth     *AuthService
	users    *UserService
	posts    *PostService
	comments *CommentService
}

func newTestEnv(t *testing.T, allowSelfAssignedRole bool) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	passwords, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	return &testEnv{
		store:    store,
		tokens:   tokens,
		auth:     NewAuthService(store.Users(), tokens, passwords, allowSelfAssignedRole, logger),
		users:    NewUserService(store.Users(), passwords, logger),
		posts:    NewPostService(store.Posts(), store.Users(), logger),
		comments: NewCommentService(store.Comments(), store.Posts(), store.Users(), logger),
	}
}

// register creates an account and returns the actor its login token carries.
func (e *testEnv) register(t *testing.T, email, role string) model.Actor {
	t.Helper()
	ctx := context.Background()
	_, err := e.auth.Register(ctx, RegisterRequest{Email: email, Password: "secret1", LastName: "Doe", Role: role}, &model.Actor{ID: "op", Role: model.RoleAdmin})
	require.NoError(t, err)

	login, err := e.auth.Login(ctx, LoginRequest{Email: email, Password: "secret1"})
	require.NoError(t, err)
	actor, err := e.tokens.Verify(login.AccessToken)
	require.NoError(t, err)
	return actor
}

func ptr[T any](v T) *T { return &v }
