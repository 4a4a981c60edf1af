package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	// validToken is the bearer the protected route accepts.
	validToken atomic.Value
	// refreshTo is issued by /auth/refresh; empty means refresh fails.
	refreshTo string

	protectedHits atomic.Int32
	refreshHits   atomic.Int32
	lastCookies   atomic.Value
}

func newFakeAPI(t *testing.T, validToken, refreshTo string) (*fakeAPI, *Client) {
	t.Helper()

	f := &fakeAPI{refreshTo: refreshTo}
	f.validToken.Store(validToken)
	f.lastCookies.Store([]*http.Cookie(nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", f.refresh)
	mux.HandleFunc("GET /protected", f.protected)
	mux.HandleFunc("GET /teapot", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTeapot, "short and stout")
	})
	mux.HandleFunc("GET /garbled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	mux.HandleFunc("POST /invalid", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Validation failed","details":{"fieldErrors":{"title":["Required"]}}}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return f, New(srv.URL, NewSession())
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshHits.Add(1)
	if f.refreshTo == "" {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	f.validToken.Store(f.refreshTo)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        map[string]string{"id": "u1", "email": "ana@example.com", "name": "Ana"},
		"accessToken": f.refreshTo,
	})
}

func (f *fakeAPI) protected(w http.ResponseWriter, r *http.Request) {
	f.protectedHits.Add(1)
	f.lastCookies.Store(r.Cookies())
	if r.Header.Get("Authorization") != "Bearer "+f.validToken.Load().(string) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": map[string]string{"message": msg}})
}

func TestDo_AttachesBearerToken(t *testing.T) {
	f, c := newFakeAPI(t, "good", "")
	c.Session().SetToken("good")

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/protected", nil, &out, RequestOptions{Credentials: true}))
	assert.Equal(t, "world", out["hello"])
	assert.EqualValues(t, 1, f.protectedHits.Load())
	assert.EqualValues(t, 0, f.refreshHits.Load())
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	f, c := newFakeAPI(t, "stale-is-not-this", "fresh")
	c.Session().SetToken("stale")

	var notified []string
	c.Session().Subscribe(func(tok string) { notified = append(notified, tok) })

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/protected", nil, &out, RequestOptions{Credentials: true}))

	assert.Equal(t, "world", out["hello"])
	assert.EqualValues(t, 2, f.protectedHits.Load())
	assert.EqualValues(t, 1, f.refreshHits.Load())
	assert.Equal(t, "fresh", c.Session().Token())
	assert.Equal(t, "u1", c.Session().User().ID)
	assert.Equal(t, []string{"fresh"}, notified)
}

func TestDo_RetriesAtMostOnce(t *testing.T) {
	var protectedHits, refreshHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": "rotated"})
	})
	// Rejects every token, including freshly refreshed ones.
	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		protectedHits.Add(1)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, NewSession())
	c.Session().SetToken("stale")

	err := c.Do(context.Background(), http.MethodGet, "/protected", nil, nil, RequestOptions{Credentials: true})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.EqualValues(t, 2, protectedHits.Load())
	assert.EqualValues(t, 1, refreshHits.Load())
	assert.Equal(t, "rotated", c.Session().Token())
}

func TestDo_RefreshFailureReturnsOriginal401(t *testing.T) {
	f, c := newFakeAPI(t, "good", "")
	c.Session().SetToken("stale")

	err := c.Do(context.Background(), http.MethodGet, "/protected", nil, nil, RequestOptions{Credentials: true})

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "Unauthorized", ae.Message)
	assert.EqualValues(t, 1, f.protectedHits.Load())
	assert.EqualValues(t, 1, f.refreshHits.Load())
	assert.Equal(t, "stale", c.Session().Token())
}

func TestDo_NoRefreshWithoutCredentials(t *testing.T) {
	f, c := newFakeAPI(t, "good", "fresh")

	err := c.Do(context.Background(), http.MethodGet, "/protected", nil, nil, RequestOptions{})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.EqualValues(t, 1, f.protectedHits.Load())
	assert.EqualValues(t, 0, f.refreshHits.Load())
}

func TestDo_NeverRetriesRefreshEndpoint(t *testing.T) {
	f, c := newFakeAPI(t, "good", "")

	err := c.Do(context.Background(), http.MethodPost, RefreshPath, nil, nil, RequestOptions{Credentials: true})

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid refresh token", ae.Message)
	assert.EqualValues(t, 1, f.refreshHits.Load())
}

func TestDo_OtherStatusesAreNotRetried(t *testing.T) {
	f, c := newFakeAPI(t, "good", "fresh")

	err := c.Do(context.Background(), http.MethodGet, "/teapot", nil, nil, RequestOptions{Credentials: true})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusTeapot, ae.Status)
	assert.Equal(t, "short and stout", ae.Message)

	err = c.Do(context.Background(), http.MethodGet, "/garbled", nil, nil, RequestOptions{Credentials: true})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "Request failed", ae.Message)

	err = c.Do(context.Background(), http.MethodPost, "/invalid", map[string]string{}, nil, RequestOptions{Credentials: true})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, map[string][]string{"title": {"Required"}}, ae.FieldErrors)

	assert.EqualValues(t, 0, f.refreshHits.Load())
}

func TestDo_CookiesOnlyWithCredentials(t *testing.T) {
	f, c := newFakeAPI(t, "good", "")
	c.Session().SetToken("good")

	u, err := http.NewRequest(http.MethodGet, c.BaseURL()+"/protected", nil)
	require.NoError(t, err)
	c.Jar().SetCookies(u.URL, []*http.Cookie{{Name: "jid", Value: "r1", Path: "/"}})

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/protected", nil, nil, RequestOptions{}))
	assert.Empty(t, f.lastCookies.Load().([]*http.Cookie))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/protected", nil, nil, RequestOptions{Credentials: true}))
	cookies := f.lastCookies.Load().([]*http.Cookie)
	require.Len(t, cookies, 1)
	assert.Equal(t, "r1", cookies[0].Value)
}

func TestBootstrap(t *testing.T) {
	_, ok := newFakeAPI(t, "good", "fresh")
	assert.True(t, ok.Bootstrap(context.Background()))
	assert.Equal(t, "fresh", ok.Session().Token())

	f, failing := newFakeAPI(t, "good", "")
	failing.Session().Set("old", &User{ID: "u1"})
	assert.False(t, failing.Bootstrap(context.Background()))
	assert.Empty(t, failing.Session().Token())
	assert.Nil(t, failing.Session().User())
	assert.EqualValues(t, 1, f.refreshHits.Load())
}

func TestUpdateTaskInput_MarshalJSON(t *testing.T) {
	st := StatusCompleted
	data, err := json.Marshal(UpdateTaskInput{Status: &st, ClearDueDate: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"COMPLETED","dueDate":null}`, string(data))

	data, err = json.Marshal(UpdateTaskInput{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestTaskQuery_Encode(t *testing.T) {
	assert.Empty(t, TaskQuery{}.Encode())
	assert.Equal(t, "sort=dueDateAsc&status=PENDING", TaskQuery{Status: StatusPending, Sort: SortDueDateAsc}.Encode())
}
