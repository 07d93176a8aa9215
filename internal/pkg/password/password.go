// Package password 封装存储凭据所用的 bcrypt 哈希。
package password

import "golang.org/x/crypto/bcrypt"

// DefaultCost 未指定成本因子时使用的 bcrypt 成本。
const DefaultCost = 10

// Hasher 负责密码的哈希与校验。
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher 以固定成本因子实现 Hasher。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher 将 cost 限制在 bcrypt 的合法范围内，0 表示 DefaultCost。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost 返回当前的成本因子。
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash 返回 plain 加盐后的 bcrypt 哈希。
func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify 报告 plain 是否与 hash 匹配，格式错误的哈希一律不匹配。
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var _ Hasher = (*BcryptHasher)(nil)
