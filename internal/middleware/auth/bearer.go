package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/tokens"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to each protected request.
type Identity struct {
	ID    string
	Email string
}

type ctxKey struct{}

type Bearer struct {
	Tokens *tokens.Service
}

func NewBearer(t *tokens.Service) *Bearer {
	return &Bearer{Tokens: t}
}

// RequireAuth rejects missing and invalid tokens with the same response.
func (m *Bearer) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		l := logging.FromContext(req.Context())

		raw, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Debug("auth_rejected", "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}

		claims, err := m.Tokens.VerifyAccessToken(raw)
		if err != nil {
			l.Debug("auth_rejected", "reason", "invalid access token")
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}

		id := Identity{ID: claims.Subject, Email: claims.Email}
		c.Set(identityKey, id)
		ctx := IntoContext(req.Context(), id)
		ctx = logging.IntoContext(ctx, l.With("user_id", id.ID))
		c.SetRequest(req.WithContext(ctx))

		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func FromEcho(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
