package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"taskmanager/internal/api/middleware"
	"taskmanager/internal/apperr"
	"taskmanager/internal/model"
	"taskmanager/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// CredentialStore 用户凭据存储。
type CredentialStore interface {
	Register(ctx context.Context, username, email, password string) (uint, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	VerifyPassword(user *model.User, candidate string) bool
}

// TokenIssuer 签发会话令牌。
type TokenIssuer interface {
	Issue(email string) (string, error)
}

// Handler 提供注册、登录与个人资料接口。
type Handler struct {
	users  CredentialStore
	tokens TokenIssuer
	logger *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(users CredentialStore, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	JWTToken string `json:"jwtToken"`
}

// Register 创建新用户。
//
// POST /register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorMsg": "Invalid request body"})
		return
	}

	_, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, apperr.ErrConflict) {
		metrics.AuthFailuresTotal.WithLabelValues("user_exists").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"errorMsg": "User Already Exists"})
		return
	}
	if err != nil {
		h.logError("register failed", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"errorMsg": "Database error"})
		return
	}

	metrics.UsersRegisteredTotal.Inc()
	if h.logger != nil {
		h.logger.Info("user registered", slog.String("email", req.Email))
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "User Registered Successfully"})
}

// Login 校验用户并返回 JWT。
//
// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorMsg": "Invalid request body"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"errorMsg": "User Doesn't Exist"})
		return
	}
	if err != nil {
		h.logError("query user failed", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"errorMsg": "Database error"})
		return
	}

	if !h.users.VerifyPassword(user, req.Password) {
		metrics.AuthFailuresTotal.WithLabelValues("wrong_password").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"errorMsg": "Incorrect Password"})
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.logError("sign token failed", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"errorMsg": "sign token failed"})
		return
	}

	if h.logger != nil {
		h.logger.Info("user logged in", slog.String("email", user.Email))
	}
	c.JSON(http.StatusCreated, tokenResponse{JWTToken: token})
}

// Profile 返回当前用户的完整记录（包括密码哈希字段）。
//
// GET /profile
func (h *Handler) Profile(c *gin.Context) {
	email := middleware.GetEmail(c)
	user, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.logError("load profile failed", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"errorMsg": "Database error or user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) logError(msg, email string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error(msg, slog.String("email", email), slog.String("error", err.Error()))
}
