package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/backend/config"
	"microblog/backend/notification"
	"microblog/backend/pkg/db/sqlite/sqlitetest"
	"microblog/backend/user"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func (c apiClient) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c apiClient) signup(name string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/register", "", map[string]string{
		"username": name, "email": name + "@mail.com", "password": name + "-secret",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodPost, "/login", "", map[string]string{"username": name, "password": name + "-secret"})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&body))
	return body["token"]
}

func newTestServer(t *testing.T) apiClient {
	t.Helper()
	cfg := config.Config{
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		PostsPerPage: 10,
		LoginRate:    100,
		LoginBurst:   100,
	}
	server := httptest.NewServer(newRouter(sqlitetest.Open(t), cfg, notification.NewHub(), user.NewLimiter(cfg.LoginRate, cfg.LoginBurst)))
	t.Cleanup(server.Close)
	return apiClient{t: t, server: server}
}

func TestFeedEndToEnd(t *testing.T) {
	api := newTestServer(t)

	tokens := map[string]string{}
	for _, name := range []string{"john", "susan", "jane", "steve"} {
		tokens[name] = api.signup(name)
	}

	// oldest to newest: john, steve, jane, susan
	for _, name := range []string{"john", "steve", "jane", "susan"} {
		resp := api.do(http.MethodPost, "/posts", tokens[name], map[string]string{"body": "post from " + name})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	for _, edge := range [][2]string{{"john", "susan"}, {"john", "steve"}, {"susan", "jane"}, {"jane", "steve"}} {
		resp := api.do(http.MethodPost, "/follow?username="+edge[1], tokens[edge[0]], nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	want := map[string][]string{
		"john":  {"susan", "steve", "john"},
		"susan": {"susan", "jane"},
		"jane":  {"jane", "steve"},
		"steve": {"steve"},
	}
	for name, authors := range want {
		resp := api.do(http.MethodGet, "/posts/feed", tokens[name], nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page struct {
			Posts []struct {
				Author string `json:"author"`
				Body   string `json:"body"`
			} `json:"posts"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))

		got := make([]string, 0, len(page.Posts))
		for _, p := range page.Posts {
			got = append(got, p.Author)
			assert.Equal(t, "post from "+p.Author, p.Body)
		}
		assert.Equal(t, authors, got, "feed of %s", name)
	}

	resp := api.do(http.MethodGet, "/user/steve", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		Followers int    `json:"followers"`
		Following int    `json:"following"`
		Avatar    string `json:"avatar"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, 2, profile.Followers)
	assert.Equal(t, 0, profile.Following)
	assert.Contains(t, profile.Avatar, "https://www.gravatar.com/avatar/")

	resp = api.do(http.MethodGet, "/notifications", tokens["steve"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var notes []notification.Notification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&notes))
	assert.Len(t, notes, 2)
}

func TestUnfollowEndToEnd(t *testing.T) {
	api := newTestServer(t)
	john := api.signup("john")
	susan := api.signup("susan")

	resp := api.do(http.MethodPost, "/posts", susan, map[string]string{"body": "cats"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/follow?username=susan", john, nil).StatusCode)
	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/unfollow?username=susan", john, nil).StatusCode)

	resp = api.do(http.MethodGet, "/user/follow-status?username=susan", john, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.False(t, status["is_following"])

	resp = api.do(http.MethodGet, "/posts/feed", john, nil)
	var page struct {
		Posts []json.RawMessage `json:"posts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Empty(t, page.Posts)
}

func TestRoutesRequireAuth(t *testing.T) {
	api := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/posts"},
		{http.MethodGet, "/posts/feed"},
		{http.MethodPost, "/follow?username=x"},
		{http.MethodDelete, "/unfollow?username=x"},
		{http.MethodGet, "/notifications"},
	} {
		resp := api.do(route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, fmt.Sprintf("%s %s", route.method, route.path))
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newTestServer(t)

	resp := api.do(http.MethodOptions, "/posts", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
