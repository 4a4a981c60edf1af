package cli

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasktracker/internal/tokens"
)

func newJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func TestStateFile_RoundTrip(t *testing.T) {
	const base = "http://127.0.0.1:4000"
	s := stateFile{path: filepath.Join(t.TempDir(), "nested", "session.json")}

	jar := newJar(t)
	require.NoError(t, s.load(jar, base), "missing file is fine")

	u, err := refreshURL(base)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: tokens.RefreshCookieName, Value: "r1", Path: tokens.RefreshCookiePath}})
	require.NoError(t, s.save(jar, base))

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := newJar(t)
	require.NoError(t, s.load(restored, base))
	cookies := restored.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "r1", cookies[0].Value)

	other, err := url.Parse(base + "/projects")
	require.NoError(t, err)
	assert.Empty(t, restored.Cookies(other), "cookie stays scoped to the refresh path")

	// A different server does not get the cookie.
	foreign := newJar(t)
	require.NoError(t, s.load(foreign, "http://127.0.0.1:5000"))
	fu, _ := refreshURL("http://127.0.0.1:5000")
	assert.Empty(t, foreign.Cookies(fu))

	// An empty jar removes the file.
	require.NoError(t, s.save(newJar(t), base))
	_, err = os.Stat(s.path)
	assert.True(t, os.IsNotExist(err))
}

func TestStateFile_Corrupt(t *testing.T) {
	s := stateFile{path: filepath.Join(t.TempDir(), "session.json")}
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o600))

	assert.Error(t, s.load(newJar(t), "http://localhost:4000"))
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]string{
		"pending":     "PENDING",
		"in-progress": "IN_PROGRESS",
		"In Progress": "IN_PROGRESS",
		"COMPLETED":   "COMPLETED",
	} {
		got, err := parseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, string(got))
	}

	_, err := parseStatus("done")
	assert.Error(t, err)
}
