package middleware

import (
	"net/http"
	"strings"

	"taskmanager/internal/apperr"
	"taskmanager/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// EmailKey 上下文中保存已认证邮箱的键。
const EmailKey = "email"

// TokenVerifier 将 Bearer 令牌解析为签发时的邮箱。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authorize 从 Authorization 头中提取 Bearer 令牌并校验。
// 不检查用户是否仍然存在。
func Authorize(verifier TokenVerifier, header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.ErrUnauthorized
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperr.ErrUnauthorized
	}
	email, err := verifier.Verify(token)
	if err != nil {
		return "", apperr.ErrUnauthorized
	}
	return email, nil
}

// AuthMiddleware 校验 JWT 并将邮箱写入上下文。
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := Authorize(verifier, c.GetHeader("Authorization"))
		if err != nil {
			metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errorMsg": "Invalid JWT Token"})
			return
		}
		c.Set(EmailKey, email)
		c.Next()
	}
}

// GetEmail 从上下文中获取邮箱。
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}
