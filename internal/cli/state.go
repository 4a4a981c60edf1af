package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Skotchmaster/tasktracker/internal/tokens"
)

// stateFile persists the refresh cookie between invocations. The access
// token is never written; every run gets a fresh one through a refresh.
type stateFile struct {
	path string
}

type persisted struct {
	BaseURL      string `json:"baseUrl"`
	RefreshToken string `json:"refreshToken"`
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "taskctl", "session.json")
}

func refreshURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL + tokens.RefreshCookiePath)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	return u, nil
}

// load puts a stored refresh cookie for baseURL into jar. A missing file or
// a cookie stored for another server is not an error.
func (s stateFile) load(jar http.CookieJar, baseURL string) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode state %s: %w", s.path, err)
	}
	if p.BaseURL != baseURL || p.RefreshToken == "" {
		return nil
	}

	u, err := refreshURL(baseURL)
	if err != nil {
		return err
	}
	jar.SetCookies(u, []*http.Cookie{{
		Name:     tokens.RefreshCookieName,
		Value:    p.RefreshToken,
		Path:     tokens.RefreshCookiePath,
		HttpOnly: true,
	}})
	return nil
}

// save writes the jar's current refresh cookie, or removes the file when the
// server cleared it.
func (s stateFile) save(jar http.CookieJar, baseURL string) error {
	u, err := refreshURL(baseURL)
	if err != nil {
		return err
	}

	var token string
	for _, ck := range jar.Cookies(u) {
		if ck.Name == tokens.RefreshCookieName {
			token = ck.Value
		}
	}

	if token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove state: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(persisted{BaseURL: baseURL, RefreshToken: token})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
