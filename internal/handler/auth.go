package handler

import (
	"context"  // provides context with cancellation for DB calls
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/bilhetinho/server/internal/config"     // app configuration
	"github.com/bilhetinho/server/internal/repository" // DB repositories
	"github.com/bilhetinho/server/internal/utils"      // token issuing and password hashing
)

// AuthHandler bundles dependencies for login endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AdminRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: a}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type adminPart struct {
	ID              uint64 `json:"id"`
	Username        string `json:"username"`
	EstablishmentID uint64 `json:"establishment_id"`
}

// AdminLogin verifies an establishment admin's credentials and returns a
// tenant-scoped access token.  Unknown usernames and wrong passwords get
// the same 401 so the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByUsername(ctx, req.Username)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAdminToken(h.Cfg.JWTSecret, a.ID, a.EstablishmentID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"admin":  adminPart{ID: a.ID, Username: a.Username, EstablishmentID: a.EstablishmentID},
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// MasterLogin verifies the configured master credentials and returns a
// token that bypasses tenant scoping.
func (h *AuthHandler) MasterLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username != h.Cfg.MasterUsername || req.Password != h.Cfg.MasterPassword {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	access, err := utils.NewMasterToken(h.Cfg.JWTSecret, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":   utils.RoleMaster,
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
