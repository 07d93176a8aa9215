package model

// Task 表示用户的一条待办任务，对应 taskList 表。
//
// UserID 在创建时写入，之后不再修改；所有查询都按 UserID 限定归属。
type Task struct {
	ID     uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"` // 任务 ID
	UserID uint   `gorm:"column:userId;not null;index" json:"userId"`   // 所属用户 ID
	Task   string `gorm:"column:task;not null" json:"task"`             // 任务描述
	Status string `gorm:"column:status;not null" json:"status"`         // 任务状态（自由文本）

	Owner *User `gorm:"foreignKey:UserID;references:ID" json:"-"` // 仅用于建表时生成外键
}

// TableName 指定表名。
func (Task) TableName() string {
	return "taskList"
}
