// Package session 签发并校验携带用户邮箱的 HS256 JWT。
package session

import (
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 令牌中携带的身份信息。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Manager 负责签发与校验令牌，密钥在启动时加载一次。
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager 创建令牌管理器。ttl 为 0 时签发的令牌不带过期时间。
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue 签发嵌入 email 的令牌。
func (m *Manager) Issue(email string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Email: email,
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify 校验签名（以及存在时的过期时间）并返回令牌中的邮箱。
//
// 只要签名有效即视为有效令牌：不检查用户是否仍然存在，缺少 email 时返回空字符串，
// 由后续的用户查询失败。
func (m *Manager) Verify(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", apperr.ErrUnauthorized
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return claims.Email, nil
}
