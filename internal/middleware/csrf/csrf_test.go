package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		headers map[string]string
		allowed []string
		want    int
	}{
		{"no origin", http.MethodPost, nil, nil, http.StatusOK},
		{"same origin", http.MethodPost, map[string]string{"Origin": "http://api.local"}, nil, http.StatusOK},
		{"allowed origin", http.MethodPost, map[string]string{"Origin": "http://localhost:5173"}, []string{"http://localhost:5173/"}, http.StatusOK},
		{"allowed referer", http.MethodPost, map[string]string{"Referer": "http://localhost:5173/login"}, []string{"http://localhost:5173"}, http.StatusOK},
		{"foreign origin", http.MethodPost, map[string]string{"Origin": "https://evil.example"}, []string{"http://localhost:5173"}, http.StatusForbidden},
		{"null origin", http.MethodPost, map[string]string{"Origin": "null"}, nil, http.StatusForbidden},
		{"scheme mismatch", http.MethodPost, map[string]string{"Origin": "https://api.local"}, nil, http.StatusForbidden},
		{"forwarded https", http.MethodPost, map[string]string{"Origin": "https://api.local", "X-Forwarded-Proto": "https"}, nil, http.StatusOK},
		{"wildcard", http.MethodPost, map[string]string{"Origin": "https://evil.example"}, []string{"*"}, http.StatusOK},
		{"safe method", http.MethodGet, map[string]string{"Origin": "https://evil.example"}, nil, http.StatusOK},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(tc.method, "http://api.local/auth/refresh", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := Middleware(Config{AllowedOrigins: tc.allowed})(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			if tc.want == http.StatusOK {
				assert.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			var he *echo.HTTPError
			if assert.ErrorAs(t, err, &he) {
				assert.Equal(t, tc.want, he.Code)
			}
		})
	}
}
