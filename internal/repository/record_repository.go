package repository

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"quizbot_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRepository 处理答题历史、错题计数与用户持久化状态
type RecordRepository struct {
	DB *gorm.DB
	// 时间源，测试中可替换
	Now func() time.Time
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{DB: db, Now: time.Now}
}

// UpsertUserState 更新用户当前使用的题库与活跃时间
func (r *RecordRepository) UpsertUserState(userID, bankName string) error {
	state := model.UserState{
		UserID:      userID,
		CurrentBank: bankName,
		LastActive:  r.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_bank", "last_active"}),
	}).Create(&state).Error
}

// GetUserState 返回用户最近使用的题库名，从未出过题时返回空串
func (r *RecordRepository) GetUserState(userID string) (string, error) {
	var state model.UserState
	err := r.DB.Where("user_id = ?", userID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.CurrentBank, nil
}

// RecordAnswer 记录一次判分提交。答错时同事务内 upsert 错题计数，
// 两者要么都落库要么都回滚，避免计数和历史漂移。
func (r *RecordRepository) RecordAnswer(userID string, question *model.DisplayedQuestion, userAnswer string, isCorrect bool, bankName string, isPractice bool) error {
	snapshot, err := json.Marshal(question)
	if err != nil {
		return err
	}

	now := r.Now()
	record := model.AnswerRecord{
		UserID:        userID,
		QuestionID:    question.ID,
		BankName:      bankName,
		UserAnswer:    userAnswer,
		CorrectAnswer: answerString(question.Answer),
		IsCorrect:     isCorrect,
		AnswerTime:    now,
		QuestionData:  string(snapshot),
		IsPractice:    isPractice,
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if isCorrect {
			return nil
		}

		wrong := model.WrongQuestion{
			UserID:        userID,
			QuestionID:    question.ID,
			BankName:      bankName,
			WrongCount:    1,
			LastWrongTime: now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "question_id"}, {Name: "bank_name"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wrong_count":     gorm.Expr("wrong_count + 1"),
				"last_wrong_time": now,
			}),
		}).Create(&wrong).Error
	})
}

// answerString 正确答案的落库形式：多个标签用逗号连接，与用户提交格式一致
func answerString(answer model.AnswerValue) string {
	return strings.Join([]string(answer), ",")
}

// GetWrongQuestions 按错误次数降序、最近错误时间降序取错题，
// 题目内容取该题最近一次答题记录的快照
func (r *RecordRepository) GetWrongQuestions(userID, bankName string, limit int) ([]model.WrongQuestionItem, error) {
	type row struct {
		QuestionID   int
		BankName     string
		WrongCount   int
		QuestionData string
	}

	var rows []row
	err := r.DB.Raw(`
		SELECT w.question_id, w.bank_name, w.wrong_count,
		       (SELECT a.question_data FROM answer_records a
		         WHERE a.user_id = w.user_id
		           AND a.question_id = w.question_id
		           AND a.bank_name = w.bank_name
		         ORDER BY a.answer_time DESC, a.id DESC
		         LIMIT 1) AS question_data
		FROM wrong_questions w
		WHERE w.user_id = ? AND w.bank_name = ?
		ORDER BY w.wrong_count DESC, w.last_wrong_time DESC
		LIMIT ?
	`, userID, bankName, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]model.WrongQuestionItem, 0, len(rows))
	for _, row := range rows {
		var q model.DisplayedQuestion
		if err := json.Unmarshal([]byte(row.QuestionData), &q); err != nil {
			// 快照损坏的条目跳过，不影响其余错题
			continue
		}
		items = append(items, model.WrongQuestionItem{
			QuestionID: row.QuestionID,
			BankName:   row.BankName,
			WrongCount: row.WrongCount,
			Question:   &q,
		})
	}
	return items, nil
}

// GetUserStatistics 计算某题库的聚合统计。
// 去重计数（COUNT DISTINCT question_id），错题练习的提交单独统计；
// 分母为 0 时比率取 0。totalInBank 由调用方按当前题库文件题数传入。
func (r *RecordRepository) GetUserStatistics(userID, bankName string, totalInBank int) (*model.Statistics, error) {
	type counts struct {
		TotalAnswered   int
		CorrectAnswered int
		TotalWrong      int
	}
	var c counts
	err := r.DB.Raw(`
		SELECT
			COUNT(DISTINCT question_id) AS total_answered,
			COUNT(DISTINCT CASE WHEN is_correct = 1 THEN question_id END) AS correct_answered,
			(SELECT COUNT(DISTINCT question_id) FROM wrong_questions
			  WHERE user_id = ? AND bank_name = ?) AS total_wrong
		FROM answer_records
		WHERE user_id = ? AND bank_name = ? AND is_practice = 0
	`, userID, bankName, userID, bankName).Scan(&c).Error
	if err != nil {
		return nil, err
	}

	type practiceCounts struct {
		PracticeCount   int
		PracticeCorrect int
	}
	var p practiceCounts
	err = r.DB.Raw(`
		SELECT
			COUNT(DISTINCT question_id) AS practice_count,
			COUNT(DISTINCT CASE WHEN is_correct = 1 THEN question_id END) AS practice_correct
		FROM answer_records
		WHERE user_id = ? AND bank_name = ? AND is_practice = 1
	`, userID, bankName).Scan(&p).Error
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		TotalAnswered:        c.TotalAnswered,
		CorrectAnswered:      c.CorrectAnswered,
		TotalWrongQuestions:  c.TotalWrong,
		TotalQuestionsInBank: totalInBank,
		PracticeCount:        p.PracticeCount,
		PracticeCorrect:      p.PracticeCorrect,
	}
	if c.TotalAnswered > 0 {
		stats.AccuracyRate = float64(c.CorrectAnswered) / float64(c.TotalAnswered) * 100
	}
	if totalInBank > 0 {
		stats.CompletionRate = float64(c.TotalAnswered) / float64(totalInBank) * 100
	}
	if p.PracticeCount > 0 {
		stats.PracticeAccuracyRate = float64(p.PracticeCorrect) / float64(p.PracticeCount) * 100
	}
	return stats, nil
}

// GetQuestionAttemptStats 某道题全体用户的作答次数与答对次数（剔除错题练习）
func (r *RecordRepository) GetQuestionAttemptStats(questionID int, bankName string) (*model.AttemptStats, error) {
	type row struct {
		TotalAttempts   int
		CorrectAttempts int
	}
	var res row
	err := r.DB.Raw(`
		SELECT
			COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END), 0) AS correct_attempts
		FROM answer_records
		WHERE question_id = ? AND bank_name = ? AND is_practice = 0
	`, questionID, bankName).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	return &model.AttemptStats{
		TotalAttempts:   res.TotalAttempts,
		CorrectAttempts: res.CorrectAttempts,
	}, nil
}
