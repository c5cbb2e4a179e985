package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog_api/internal/api/middleware"
	"blog_api/internal/app/service"
	"blog_api/internal/common"
	"blog_api/internal/common/security"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
	metrics *middleware.Metrics
}

func newTestServer(t *testing.T, allowSelfAssignedRole bool) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	passwords, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	metrics := middleware.NewMetrics()

	services := Services{
		Auth:     service.NewAuthService(store.Users(), tokens, passwords, allowSelfAssignedRole, logger),
		Users:    service.NewUserService(store.Users(), passwords, logger),
		Posts:    service.NewPostService(store.Posts(), store.Users(), logger),
		Comments: service.NewCommentService(store.Comments(), store.Posts(), store.Users(), logger),
	}
	return &testServer{handler: NewRouter(tokens, services, metrics), store: store, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signup registers and logs in, returning the access token.
func (s *testServer) signup(t *testing.T, email, role string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "secret1", "role": role})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[service.LoginResponse](t, rec).AccessToken
}

func TestAdminRegistersLogsInAndPosts(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com", "password": "secret1", "role": "admin"})
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decode[service.RegisterResponse](t, rec)
	assert.Equal(t, "a@x.com", reg.Email)
	assert.NotEmpty(t, reg.ID)
	assert.NotEmpty(t, reg.AccessToken)

	rec = srv.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[service.LoginResponse](t, rec)
	assert.True(t, login.Success)

	rec = srv.do(t, http.MethodGet, "/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, decode[model.Actor](t, rec).Role)

	rec = srv.do(t, http.MethodPost, "/posts", login.AccessToken, map[string]string{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "a@x.com", decode[model.Post](t, rec).Author.Email)
	assert.NotContains(t, rec.Body.String(), "hashedPassword")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestNonOwnerCannotPatchPost(t *testing.T) {
	srv := newTestServer(t, true)
	adminToken := srv.signup(t, "a@x.com", "admin")
	userToken := srv.signup(t, "b@x.com", "user")

	rec := srv.do(t, http.MethodPost, "/posts", adminToken, map[string]string{"title": "T", "content": "original"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[model.Post](t, rec)

	rec = srv.do(t, http.MethodPatch, "/posts/"+post.ID, userToken, map[string]string{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	errBody := decode[common.ErrorResponse](t, rec)
	assert.Equal(t, http.StatusForbidden, errBody.StatusCode)

	rec = srv.do(t, http.MethodDelete, "/posts/"+post.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	stored, err := srv.store.Posts().FindByID(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content)
}

func TestAnonymousCanReadPosts(t *testing.T) {
	srv := newTestServer(t, true)
	adminToken := srv.signup(t, "a@x.com", "admin")
	for _, title := range []string{"one", "two", "three"} {
		rec := srv.do(t, http.MethodPost, "/posts", adminToken, map[string]string{"title": title, "content": "C"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]model.Post](t, rec)
	require.Len(t, posts, 3)
	assert.Equal(t, "three", posts[0].Title)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	rec = srv.do(t, http.MethodGet, "/posts?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts = decode[[]model.Post](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, "one", posts[0].Title)

	rec = srv.do(t, http.MethodGet, "/posts/"+posts[0].ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/posts?page=92233720368547760&limit=100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[[]model.Post](t, rec))
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
}

func TestPostCreateRequiresAdmin(t *testing.T) {
	srv := newTestServer(t, false)
	userToken := srv.signup(t, "b@x.com", "user")

	rec := srv.do(t, http.MethodPost, "/posts", userToken, map[string]string{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/posts", "", map[string]string{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfAssignedAdminIsDowngraded(t *testing.T) {
	srv := newTestServer(t, false)
	token := srv.signup(t, "a@x.com", "admin")

	rec := srv.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleUser, decode[model.Actor](t, rec).Role)

	rec = srv.do(t, http.MethodPost, "/posts", token, map[string]string{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterErrors(t *testing.T) {
	srv := newTestServer(t, false)
	srv.signup(t, "a@x.com", "")

	rec := srv.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists", decode[common.ErrorResponse](t, rec).Message)

	rec = srv.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "bad", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[common.ErrorResponse](t, rec)
	assert.Len(t, body.Errors, 2)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
	raw := httptest.NewRecorder()
	srv.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t, false)
	srv.signup(t, "a@x.com", "")

	for _, body := range []map[string]string{
		{"email": "a@x.com", "password": "wrong12"},
		{"email": "nobody@x.com", "password": "secret1"},
	} {
		rec := srv.do(t, http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decode[common.ErrorResponse](t, rec).Message)
	}
}

func TestTokenRejections(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := security.NewTokenIssuer([]byte("test-secret"), -time.Hour).
		GenerateToken(&model.User{ID: "u1", Email: "a@x.com", Role: model.RoleAdmin})
	require.NoError(t, err)
	rec = srv.do(t, http.MethodPost, "/comments", expired, map[string]string{"content": "x", "postId": "p"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode[common.ErrorResponse](t, rec).Message)
}

func TestCommentsFlowAndCascade(t *testing.T) {
	srv := newTestServer(t, true)
	adminToken := srv.signup(t, "a@x.com", "admin")
	userToken := srv.signup(t, "b@x.com", "user")
	strangerToken := srv.signup(t, "c@x.com", "user")

	rec := srv.do(t, http.MethodPost, "/posts", adminToken, map[string]string{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[model.Post](t, rec)

	rec = srv.do(t, http.MethodPost, "/comments", userToken, map[string]string{"content": "nice", "postId": post.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[model.Comment](t, rec)
	assert.Equal(t, "b@x.com", comment.Author.Email)

	rec = srv.do(t, http.MethodPatch, "/comments/"+comment.ID, strangerToken, map[string]string{"content": "spam"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/comments/"+comment.ID, userToken, map[string]string{"content": "very nice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "very nice", decode[model.Comment](t, rec).Content)

	rec = srv.do(t, http.MethodGet, "/comments/post/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Comment](t, rec), 1)

	rec = srv.do(t, http.MethodDelete, "/posts/"+post.ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/comments/post/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Comment](t, rec))

	rec = srv.do(t, http.MethodPost, "/comments", userToken, map[string]string{"content": "late", "postId": post.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersRoutes(t *testing.T) {
	srv := newTestServer(t, true)
	adminToken := srv.signup(t, "a@x.com", "admin")
	userToken := srv.signup(t, "b@x.com", "user")

	rec := srv.do(t, http.MethodGet, "/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.User](t, rec), 2)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = srv.do(t, http.MethodGet, "/users/b@x.com", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[model.User](t, rec)

	rec = srv.do(t, http.MethodGet, "/users/nobody@x.com", userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/users/"+user.ID, userToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/users/"+user.ID, userToken, map[string]string{"firstName": "Bea"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bea", decode[model.User](t, rec).FirstName)

	rec = srv.do(t, http.MethodPatch, "/users/not-a-uuid", adminToken, map[string]string{"firstName": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	srv.do(t, http.MethodGet, "/posts", "", nil)
	srv.do(t, http.MethodGet, "/posts", "", nil)

	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blog_http_requests_total")

	count, err := testutil.GatherAndCount(srv.metrics.Registry(), "blog_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Positive(t, count)
}
