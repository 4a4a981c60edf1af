package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/logging"
)

// Config controls which browser origins may send cookie-authenticated
// requests. AllowedOrigins holds entries like "https://app.example.com";
// "*" allows any origin.
type Config struct {
	AllowedOrigins []string
}

// Middleware rejects unsafe requests whose Origin (or Referer) names a site
// that is neither this server nor an allowed origin. Requests carrying
// neither header come from non-browser clients and pass.
func Middleware(cfg Config) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	allowAny := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			if allowAny {
				return next(c)
			}

			origin, ok := requestOrigin(req)
			if !ok {
				return next(c)
			}
			if _, ok := allowed[origin]; ok || origin == selfOrigin(req) {
				return next(c)
			}

			logging.FromContext(req.Context()).Warn("csrf_rejected", "origin", origin)
			return echo.NewHTTPError(http.StatusForbidden, "Invalid origin")
		}
	}
}

// requestOrigin returns scheme://host of the Origin header, falling back to
// the Referer. ok is false when neither is set.
func requestOrigin(r *http.Request) (string, bool) {
	raw := r.Header.Get("Origin")
	if raw == "" {
		raw = r.Header.Get("Referer")
	}
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// "null" and garbage never match anything.
		return "invalid", true
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

func selfOrigin(r *http.Request) string {
	return strings.ToLower(schemeOf(r) + "://" + r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
