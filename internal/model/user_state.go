package model

import "time"

// UserState 用户的持久化状态：最近使用的题库与活跃时间，
// 每次出题时 upsert
type UserState struct {
	UserID      string    `gorm:"primaryKey;size:64" json:"userId"`
	CurrentBank string    `gorm:"size:128" json:"currentBank"`
	LastActive  time.Time `json:"lastActive"`
}

func (UserState) TableName() string {
	return "user_states"
}
