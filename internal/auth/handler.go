package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"leadaudit/internal/httperr"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
}

func NewHandler(repo *Repo, tokens TokenService) *Handler {
	return &Handler{Repo: repo, Tokens: tokens}
}

// RegisterPublicRoutes mounts login. Callers wrap it in a rate limiter.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
}

// RegisterRoutes mounts the authenticated account and user admin routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/logout", h.logout)
	rg.GET("/me", h.me)
	rg.POST("/change-password", h.changePassword)
	rg.POST("/create-user", h.createUser)
	rg.GET("/users", h.listUsers)
	rg.PATCH("/users/:id", h.updateUser)
	rg.DELETE("/users/:id", h.deleteUser)
}

func validPassword(p string) bool {
	return len(p) >= 8 && len(p) <= 72
}

func validEmail(e string) bool {
	return strings.Contains(e, "@") && len(e) <= 255
}

func hashPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		httperr.BadRequest(c, "email and password required")
		return
	}

	u, err := h.Repo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		httperr.Store(c, "User", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	now := time.Now().UTC()
	if err := h.Repo.TouchSignIn(c.Request.Context(), u.ID, now); err != nil {
		logger.WithContext(c.Request.Context()).Warn("record sign in", zap.Error(err))
	} else {
		u.LastSignInAt = &now
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       u,
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	s := SessionFrom(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	u, err := h.Repo.GetByID(c.Request.Context(), s.UserID)
	if err != nil {
		httperr.Store(c, "User", err)
		return
	}
	if u == nil {
		httperr.NotFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		httperr.BadRequest(c, "old and new password required")
		return
	}
	if !validPassword(req.NewPassword) {
		httperr.BadRequest(c, "password must be 8-72 chars")
		return
	}

	s := SessionFrom(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	u, err := h.Repo.GetByID(c.Request.Context(), s.UserID)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}

	if err := h.Repo.UpdatePasswordAndBumpTokenVersion(c.Request.Context(), u.ID, hash); err != nil {
		httperr.Store(c, "User", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

func (h *Handler) logout(c *gin.Context) {
	s := SessionFrom(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.Repo.BumpTokenVersion(c.Request.Context(), s.UserID); err != nil {
		httperr.Store(c, "User", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		httperr.BadRequest(c, "Email and password are required")
		return
	}
	if !validEmail(req.Email) {
		httperr.BadRequest(c, "invalid email")
		return
	}
	if !validPassword(req.Password) {
		httperr.BadRequest(c, "password must be 8-72 chars")
		return
	}

	u, err := CreateUser(c.Request.Context(), h.Repo, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}
		httperr.Store(c, "User", err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("created user account", zap.String("email", u.Email))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    u,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.Repo.List(c.Request.Context())
	if err != nil {
		httperr.Store(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateUserReq struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *Handler) updateUser(c *gin.Context) {
	id := c.Param("id")

	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	var patch UserPatch
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		email := normalizeEmail(*req.Email)
		if !validEmail(email) {
			httperr.BadRequest(c, "invalid email")
			return
		}
		patch.Email = &email
	}
	patch.Name = req.Name
	if req.Password != nil && *req.Password != "" {
		if !validPassword(*req.Password) {
			httperr.BadRequest(c, "password must be 8-72 chars")
			return
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
			return
		}
		patch.PasswordHash = &hash
	}

	if err := h.Repo.Update(c.Request.Context(), id, patch); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
			return
		}
		httperr.Store(c, "User", err)
		return
	}

	u, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Store(c, "User", err)
		return
	}
	if u == nil {
		httperr.NotFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id := c.Param("id")

	if s := SessionFrom(c); s != nil && s.UserID == id {
		httperr.BadRequest(c, "cannot delete your own account")
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		httperr.Store(c, "User", err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("deleted user", zap.String("user_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateUser hashes password and stores a new staff account.
func CreateUser(ctx context.Context, repo *Repo, email, password, name string) (*models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Bootstrap creates the first account when the users table is empty and
// an admin email and password are configured.
func Bootstrap(ctx context.Context, repo *Repo, email, password, name string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	n, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	return CreateUser(ctx, repo, email, password, name)
}
