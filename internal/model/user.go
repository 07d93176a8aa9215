package model

// User 表示系统用户，对应 userDetails 表。
//
// Password 保存 bcrypt 哈希，个人资料接口会原样返回该字段。
type User struct {
	ID       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`                     // 用户 ID
	Username string `gorm:"column:username;not null" json:"username"`                         // 用户名
	Email    string `gorm:"column:email;type:varchar(191);uniqueIndex;not null" json:"email"` // 邮箱（唯一，区分大小写）
	Password string `gorm:"column:password;not null" json:"password"`                         // bcrypt 哈希
}

// TableName 指定表名。
func (User) TableName() string {
	return "userDetails"
}
