package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "eventia/internal/config"
    "eventia/internal/model"
    "eventia/internal/repository"
    "eventia/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
    Cfg   config.Config
    Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
    if u == nil {
        panic("nil repository passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // user | admin
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type updateMeReq struct {
    Name     *string `json:"name"`
    Email    *string `json:"email"`
    Password *string `json:"password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User   model.User `json:"user"`
    Access tokenPart  `json:"access"`
}

// Register creates a user and returns an access token immediately.
// Anything other than an explicit "admin" role registers as a regular
// attendee account.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
    }
    if len(req.Password) < 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }
    role := model.RoleUser
    if strings.EqualFold(strings.TrimSpace(req.Role), model.RoleAdmin) {
        role = model.RoleAdmin
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, err)
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return fail(c, err)
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    return c.JSON(http.StatusCreated, authResp{
        User:   u,
        Access: tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        // Same response for unknown email and wrong password.
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    return c.JSON(http.StatusOK, authResp{
        User:   u,
        Access: tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Me returns the authenticated user's profile, including the managed
// event IDs for admins.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateMe applies a partial profile update.  Omitted fields are left
// untouched; a changed password is re-hashed.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updateMeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Password != nil && len(*req.Password) < 6 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.Update(ctx, uid, req.Name, req.Email, req.Password, h.Cfg.BcryptCost); err != nil {
        return fail(c, err)
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}
