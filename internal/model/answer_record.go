package model

import "time"

// AnswerRecord 一次判分提交的答题记录，只追加不修改。
// QuestionData 保存判分时刻的题目快照（DisplayedQuestion JSON），
// 题库文件事后被修改也不影响错题回顾。
type AnswerRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string    `gorm:"size:64;index:idx_answer_user_bank" json:"userId"`
	QuestionID    int       `gorm:"index" json:"questionId"`
	BankName      string    `gorm:"size:128;index:idx_answer_user_bank" json:"bankName"`
	UserAnswer    string    `gorm:"size:32" json:"userAnswer"`
	CorrectAnswer string    `gorm:"size:32" json:"correctAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	AnswerTime    time.Time `json:"answerTime"`
	QuestionData  string    `gorm:"type:text" json:"-"`
	// 错题练习模式下的提交，统计时从主要指标中剔除
	IsPractice bool `gorm:"default:false" json:"isPractice"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}
