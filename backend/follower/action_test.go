package follower

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/backend/pkg/db/sqlite/sqlitetest"
	"microblog/backend/user"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][2]string
}

func (n *recordingNotifier) NotifyFollow(_ context.Context, follower, followed user.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, [2]string{follower.Username, followed.Username})
	return nil
}

func serve(handler http.HandlerFunc, method, target string, as *user.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if as != nil {
		req = req.WithContext(user.WithIdentity(req.Context(), user.Identity{ID: as.ID, Username: as.Username}))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestFollowHandlers(t *testing.T) {
	sqlDB := sqlitetest.Open(t)
	users := createUsers(t, sqlDB, "john", "susan")
	john, susan := users[0], users[1]
	notifier := &recordingNotifier{}
	graph := NewGraph(sqlDB)
	h := NewHandler(graph, user.NewStore(sqlDB), notifier)

	rec := serve(h.Follow, http.MethodPost, "/follow?username=susan", &john)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, [][2]string{{"john", "susan"}}, notifier.calls)

	rec = serve(h.Follow, http.MethodPost, "/follow?username=susan", &john)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.calls, 1)

	rec = serve(h.Status, http.MethodGet, "/user/follow-status?username=john", &susan)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_following":false,"follows_you":true}`, rec.Body.String())

	rec = serve(h.Followers, http.MethodGet, "/followers?username=susan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "john", listed[0].Username)
	assert.Equal(t, user.Avatar("john@mail.com", 36), listed[0].Avatar)
	assert.NotContains(t, rec.Body.String(), "email")
	assert.NotContains(t, rec.Body.String(), "john@mail.com")

	rec = serve(h.Following, http.MethodGet, "/following", &john)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "susan", listed[0].Username)

	rec = serve(h.Unfollow, http.MethodDelete, "/unfollow?username=susan", &john)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(h.Unfollow, http.MethodDelete, "/unfollow?username=susan", &john)
	assert.Equal(t, http.StatusOK, rec.Code)
	assertFollowing(t, graph, john.ID, susan.ID, false)
}

func TestFollowHandlerErrors(t *testing.T) {
	sqlDB := sqlitetest.Open(t)
	john := createUsers(t, sqlDB, "john")[0]
	h := NewHandler(NewGraph(sqlDB), user.NewStore(sqlDB), nil)

	tests := []struct {
		name   string
		target string
		as     *user.User
		status int
	}{
		{name: "unauthenticated", target: "/follow?username=john", status: http.StatusUnauthorized},
		{name: "missing username", target: "/follow", as: &john, status: http.StatusBadRequest},
		{name: "unknown target", target: "/follow?username=ghost", as: &john, status: http.StatusNotFound},
		{name: "self", target: "/follow?username=john", as: &john, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.Follow, http.MethodPost, tt.target, tt.as)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, http.StatusNotFound, serve(h.Followers, http.MethodGet, "/followers?username=ghost", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h.Followers, http.MethodGet, "/followers", nil).Code)
}

func TestConcurrentFollowNotifiesOnce(t *testing.T) {
	sqlDB := sqlitetest.Open(t)
	users := createUsers(t, sqlDB, "john", "susan")
	john := users[0]
	notifier := &recordingNotifier{}
	h := NewHandler(NewGraph(sqlDB), user.NewStore(sqlDB), notifier)

	const requests = 8
	codes := make(chan int, requests)
	var wg sync.WaitGroup
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- serve(h.Follow, http.MethodPost, "/follow?username=susan", &john).Code
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusOK, code)
		}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, notifier.calls, 1)
}
