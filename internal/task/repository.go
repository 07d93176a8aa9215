// Package task 提供按用户归属限定的任务增删改查。
//
// 每条 SQL 都带有 userId 条件，跨用户访问表现为"不存在"。
package task

import (
	"context"
	"fmt"

	"taskmanager/internal/apperr"
	"taskmanager/internal/model"

	"gorm.io/gorm"
)

// Patch 描述部分更新，nil 或空字符串的字段保持不变。
type Patch struct {
	Task   *string
	Status *string
}

// columns 返回需要更新的列；没有任何字段时返回空 map。
func (p Patch) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Task != nil && *p.Task != "" {
		updates["task"] = *p.Task
	}
	if p.Status != nil && *p.Status != "" {
		updates["status"] = *p.Status
	}
	return updates
}

// Empty 报告补丁是否不包含任何可更新字段。
func (p Patch) Empty() bool {
	return len(p.columns()) == 0
}

// Repository 基于 taskList 表的任务仓库。
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建任务仓库。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 为 ownerID 插入一条任务并返回新 ID。
func (r *Repository) Create(ctx context.Context, ownerID uint, description, status string) (uint, error) {
	t := model.Task{
		UserID: ownerID,
		Task:   description,
		Status: status,
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return 0, fmt.Errorf("%w: create task: %v", apperr.ErrStorage, err)
	}
	return t.ID, nil
}

// Update 只更新补丁中提供的字段。
//
// 补丁为空返回 apperr.ErrBadRequest（不访问数据库）；
// 任务不存在或不属于 ownerID 时返回 apperr.ErrNotFound。
func (r *Repository) Update(ctx context.Context, ownerID, taskID uint, patch Patch) error {
	updates := patch.columns()
	if len(updates) == 0 {
		return apperr.ErrBadRequest
	}

	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND userId = ?", taskID, ownerID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: update task: %v", apperr.ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete 删除 ownerID 名下的任务。
func (r *Repository) Delete(ctx context.Context, ownerID, taskID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND userId = ?", taskID, ownerID).
		Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("%w: delete task: %v", apperr.ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListByOwner 返回 ownerID 的全部任务，顺序为存储的自然顺序。
func (r *Repository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).Where("userId = ?", ownerID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", apperr.ErrStorage, err)
	}
	return tasks, nil
}
