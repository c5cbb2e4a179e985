// Package blogclient is a Go client for the blog API that caches the login
// session so later calls are authenticated automatically.
package blogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Store   SessionStore

	mu      sync.Mutex
	session *Session
}

func New(baseURL string, store SessionStore) *Client {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Store:   store,
	}
}

// Session returns the cached session, loading it from Store on first use.
func (c *Client) Session() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		s, err := c.Store.Load()
		if err != nil {
			return Session{}, err
		}
		c.session = &s
	}
	return *c.session, nil
}

func (c *Client) setSession(s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &s
	if !s.IsAuthenticated() {
		return c.Store.Clear()
	}
	return c.Store.Save(s)
}

func (c *Client) IsAuthenticated() bool {
	s, err := c.Session()
	return err == nil && s.IsAuthenticated()
}

func (c *Client) IsAdmin() bool {
	s, err := c.Session()
	return err == nil && s.IsAdmin()
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	var out RegisterResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token, then caches the profile it carries.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	var out struct {
		Success     bool   `json:"success"`
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	if err := c.setSession(Session{Token: out.AccessToken}); err != nil {
		return nil, err
	}
	return c.Refresh(ctx)
}

// Refresh re-reads the profile for the cached token.
func (c *Client) Refresh(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	s.User = &p
	if err := c.setSession(s); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Logout() error {
	return c.setSession(Session{})
}

// ListPosts returns one page and the server's total post count.
func (c *Client) ListPosts(ctx context.Context, page, limit int) ([]Post, int, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var posts []Post
	resp, err := c.doResponse(ctx, http.MethodGet, path, nil, &posts)
	if err != nil {
		return nil, 0, err
	}
	total, _ := strconv.Atoi(resp.Header.Get("X-Total-Count"))
	return posts, total, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var p Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	var p Post
	if err := c.do(ctx, http.MethodPost, "/posts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error) {
	var p Post
	if err := c.do(ctx, http.MethodPatch, "/posts/"+url.PathEscape(id), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, "/comments/post/"+url.PathEscape(postID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (*Comment, error) {
	var cm Comment
	body := map[string]string{"postId": postID, "content": content}
	if err := c.do(ctx, http.MethodPost, "/comments", body, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) UpdateComment(ctx context.Context, id, content string) (*Comment, error) {
	var cm Comment
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPatch, "/comments/"+url.PathEscape(id), body, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, email string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.doResponse(ctx, method, path, in, out)
	return err
}

// doResponse sends the request with the cached bearer token. A 401 while
// holding a token means it is no longer valid, so the session is dropped.
func (c *Client) doResponse(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	session, err := c.Session()
	if err != nil {
		return nil, err
	}
	if session.IsAuthenticated() {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && session.IsAuthenticated() {
			if err := c.Logout(); err != nil {
				return nil, err
			}
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return resp, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
