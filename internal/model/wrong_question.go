package model

import "time"

// WrongQuestion 错题计数，(用户, 题目, 题库) 三元组唯一。
// 每次答错对同一三元组做一次 upsert：计数 +1、刷新时间。
type WrongQuestion struct {
	UserID        string    `gorm:"primaryKey;size:64" json:"userId"`
	QuestionID    int       `gorm:"primaryKey" json:"questionId"`
	BankName      string    `gorm:"primaryKey;size:128" json:"bankName"`
	WrongCount    int       `gorm:"default:1" json:"wrongCount"`
	LastWrongTime time.Time `json:"lastWrongTime"`
}

func (WrongQuestion) TableName() string {
	return "wrong_questions"
}

// WrongQuestionItem 错题列表条目，带最近一次记录的题目快照
type WrongQuestionItem struct {
	QuestionID int
	BankName   string
	WrongCount int
	Question   *DisplayedQuestion
}
