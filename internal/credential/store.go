// Package credential 持久化用户记录并负责密码哈希与校验。
package credential

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/apperr"
	"taskmanager/internal/model"
	"taskmanager/internal/pkg/password"

	"gorm.io/gorm"
)

// Store 是基于 userDetails 表的凭据存储。
//
// 每个操作最多一次读和一次写，不做缓存也不重试。
type Store struct {
	db     *gorm.DB
	hasher password.Hasher
}

// NewStore 创建凭据存储。hasher 为 nil 时使用默认成本的 bcrypt。
func NewStore(db *gorm.DB, hasher password.Hasher) *Store {
	if hasher == nil {
		hasher = password.NewBcryptHasher(password.DefaultCost)
	}
	return &Store{db: db, hasher: hasher}
}

// Register 创建新用户并返回其 ID。
//
// 邮箱已存在时返回 apperr.ErrConflict；数据库失败返回包装后的 apperr.ErrStorage。
func (s *Store) Register(ctx context.Context, username, email, plain string) (uint, error) {
	_, err := s.FindByEmail(ctx, email)
	if err == nil {
		return 0, apperr.ErrConflict
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return 0, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 预检查与插入之间被并发注册抢先
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperr.ErrConflict
		}
		return 0, fmt.Errorf("%w: create user: %v", apperr.ErrStorage, err)
	}
	return user.ID, nil
}

// FindByEmail 按邮箱精确查找用户。
func (s *Store) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", apperr.ErrStorage, err)
	}
	return &user, nil
}

// VerifyPassword 使用 bcrypt 自身的比较例程校验候选密码。
func (s *Store) VerifyPassword(user *model.User, candidate string) bool {
	if user == nil {
		return false
	}
	return s.hasher.Verify(candidate, user.Password)
}
