package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/tokens"
)

const (
	CtxAccountID = "account_id"
	CtxUsername  = "username"
	CtxRoles     = "roles"
)

type Auth struct {
	Issuer *tokens.Issuer
}

func NewAuth(issuer *tokens.Issuer) *Auth {
	return &Auth{Issuer: issuer}
}

// RequireAuth verifies the bearer access token and attaches the resolved
// identity to the request context. No database lookup happens here; the
// claims are trusted until the token expires.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Issuer.ParseAccess(tokenStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		accountID, err := tokens.SubjectID(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(CtxAccountID, accountID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRoles, claims.Roles)

		return next(c)
	}
}

// RequireRoles rejects requests whose role claims have no intersection with
// required. Runs after RequireAuth. An empty required set admits any
// authenticated account.
func RequireRoles(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, _ := c.Get(CtxRoles).([]string)
			if len(roles) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role claims")
			}
			if len(required) == 0 {
				return next(c)
			}
			for _, want := range required {
				for _, have := range roles {
					if have == want {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient rights")
		}
	}
}

// AccountID returns the authenticated account id set by RequireAuth.
func AccountID(c echo.Context) (uint, bool) {
	id, ok := c.Get(CtxAccountID).(uint)
	return id, ok
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
