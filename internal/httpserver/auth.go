package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/logging"
	"github.com/taskhub/taskhub/internal/middleware"
	"github.com/taskhub/taskhub/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService

	// SecureCookies toggles the Secure cookie attribute; only off outside
	// production so local HTTP development works.
	SecureCookies bool
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	User     struct {
		CPF   string `json:"cpf"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register rejected", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateRegister(&req); err != nil {
		l.Warn("register rejected", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.Svc.Register(ctx, service.RegisterInput{
		Login:    req.Login,
		Password: req.Password,
		CPF:      req.User.CPF,
		Email:    req.User.Email,
		Name:     req.User.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateLogin):
			return echo.NewHTTPError(http.StatusConflict, "login already taken")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	// Account serializes without the password hash; see the model json tags.
	return c.JSON(http.StatusCreated, account)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login rejected", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.SignIn(ctx, req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid login or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	c.SetCookie(refreshCookie(pair.RefreshToken, pair.RefreshExp, h.SecureCookies))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		// polled opportunistically by clients, so no hard error here
		return c.JSON(http.StatusOK, echo.Map{
			"error": "refresh token not found",
		})
	}

	pair, err := h.Svc.RefreshTokens(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			c.SetCookie(deleteRefreshCookie(h.SecureCookies))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(refreshCookie(pair.RefreshToken, pair.RefreshExp, h.SecureCookies))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	if err := h.Svc.Logout(ctx, accountID); err != nil {
		c.SetCookie(deleteRefreshCookie(h.SecureCookies))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	c.SetCookie(deleteRefreshCookie(h.SecureCookies))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
