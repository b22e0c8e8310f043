package repository

import (
	"path/filepath"
	"testing"
	"time"

	"quizbot_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *RecordRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.UserState{}, &model.AnswerRecord{}, &model.WrongQuestion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRecordRepository(db)
}

func displayed(id int, correct string) *model.DisplayedQuestion {
	return &model.DisplayedQuestion{
		ID:           id,
		QuestionText: "q",
		Options:      map[string]string{"A": "甲", "B": "乙", "C": "丙", "D": "丁"},
		Answer:       model.AnswerValue{correct},
	}
}

func TestUpsertUserState(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertUserState("u1", "bank1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertUserState("u1", "bank2"); err != nil {
		t.Fatal(err)
	}

	bank, err := repo.GetUserState("u1")
	if err != nil {
		t.Fatal(err)
	}
	if bank != "bank2" {
		t.Fatalf("bank = %q, want bank2", bank)
	}

	// 从未出过题的用户返回空串而非错误
	bank, err = repo.GetUserState("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if bank != "" {
		t.Fatalf("bank = %q, want empty", bank)
	}
}

func TestRecordAnswerWrongCount(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return now }

	q := displayed(1, "A")
	if err := repo.RecordAnswer("u1", q, "B", false, "bank", false); err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Minute)
	if err := repo.RecordAnswer("u1", q, "C", false, "bank", false); err != nil {
		t.Fatal(err)
	}

	var wrong model.WrongQuestion
	err := repo.DB.Where("user_id = ? AND question_id = ? AND bank_name = ?", "u1", 1, "bank").
		First(&wrong).Error
	if err != nil {
		t.Fatal(err)
	}
	if wrong.WrongCount != 2 {
		t.Fatalf("wrong_count = %d, want 2", wrong.WrongCount)
	}
	if !wrong.LastWrongTime.Equal(now) {
		t.Fatalf("last_wrong_time = %v, want %v", wrong.LastWrongTime, now)
	}

	// 答对不产生错题条目
	if err := repo.RecordAnswer("u1", displayed(2, "A"), "A", true, "bank", false); err != nil {
		t.Fatal(err)
	}
	var count int64
	repo.DB.Model(&model.WrongQuestion{}).Where("question_id = ?", 2).Count(&count)
	if count != 0 {
		t.Fatal("correct answer created a wrong_questions row")
	}
}

func TestGetUserStatisticsDistinct(t *testing.T) {
	repo := newTestRepo(t)

	q1 := displayed(1, "A")
	// 同一题反复作答只按一题计
	repo.RecordAnswer("u1", q1, "B", false, "bank", false)
	repo.RecordAnswer("u1", q1, "A", true, "bank", false)
	repo.RecordAnswer("u1", q1, "A", true, "bank", false)
	repo.RecordAnswer("u1", displayed(2, "A"), "C", false, "bank", false)
	// 错题练习提交不计入主要统计
	repo.RecordAnswer("u1", displayed(3, "A"), "A", true, "bank", true)
	// 其他用户、其他题库都不计
	repo.RecordAnswer("u2", displayed(4, "A"), "A", true, "bank", false)
	repo.RecordAnswer("u1", displayed(5, "A"), "A", true, "other", false)

	stats, err := repo.GetUserStatistics("u1", "bank", 10)
	if err != nil {
		t.Fatal(err)
	}

	if stats.TotalAnswered != 2 {
		t.Errorf("TotalAnswered = %d, want 2", stats.TotalAnswered)
	}
	if stats.CorrectAnswered != 1 {
		t.Errorf("CorrectAnswered = %d, want 1", stats.CorrectAnswered)
	}
	if stats.TotalWrongQuestions != 2 {
		t.Errorf("TotalWrongQuestions = %d, want 2", stats.TotalWrongQuestions)
	}
	if stats.AccuracyRate != 50 {
		t.Errorf("AccuracyRate = %v, want 50", stats.AccuracyRate)
	}
	if stats.CompletionRate != 20 {
		t.Errorf("CompletionRate = %v, want 20", stats.CompletionRate)
	}
	if stats.PracticeCount != 1 || stats.PracticeCorrect != 1 {
		t.Errorf("practice = %d/%d, want 1/1", stats.PracticeCorrect, stats.PracticeCount)
	}
	if stats.PracticeAccuracyRate != 100 {
		t.Errorf("PracticeAccuracyRate = %v, want 100", stats.PracticeAccuracyRate)
	}
}

func TestGetUserStatisticsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.GetUserStatistics("u1", "bank", 0)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAnswered != 0 || stats.AccuracyRate != 0 ||
		stats.CompletionRate != 0 || stats.PracticeAccuracyRate != 0 {
		t.Fatalf("empty stats = %+v, want all zeros", stats)
	}
}

func TestGetWrongQuestionsOrderAndSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return now }

	// 题 1 错两次，第二次的快照选项排列不同
	first := displayed(1, "A")
	repo.RecordAnswer("u1", first, "B", false, "bank", false)

	now = now.Add(time.Minute)
	second := &model.DisplayedQuestion{
		ID:           1,
		QuestionText: "q",
		Options:      map[string]string{"A": "丁", "B": "甲", "C": "乙", "D": "丙"},
		Answer:       model.AnswerValue{"B"},
	}
	repo.RecordAnswer("u1", second, "C", false, "bank", false)

	now = now.Add(time.Minute)
	repo.RecordAnswer("u1", displayed(2, "A"), "B", false, "bank", false)

	items, err := repo.GetWrongQuestions("u1", "bank", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}

	// 错误次数多的排前面
	if items[0].QuestionID != 1 || items[0].WrongCount != 2 {
		t.Fatalf("items[0] = %+v, want question 1 with count 2", items[0])
	}
	// 快照取最近一次作答的版本
	if items[0].Question.Options["B"] != "甲" {
		t.Fatalf("snapshot options = %v, want the latest record", items[0].Question.Options)
	}

	// limit 生效
	items, err = repo.GetWrongQuestions("u1", "bank", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
}

func TestGetQuestionAttemptStats(t *testing.T) {
	repo := newTestRepo(t)

	q := displayed(1, "A")
	repo.RecordAnswer("u1", q, "A", true, "bank", false)
	repo.RecordAnswer("u2", q, "B", false, "bank", false)
	repo.RecordAnswer("u3", q, "A", true, "bank", true) // 错题练习不计

	stats, err := repo.GetQuestionAttemptStats(1, "bank")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAttempts != 2 || stats.CorrectAttempts != 1 {
		t.Fatalf("stats = %+v, want 2 attempts / 1 correct", stats)
	}

	// 没人作答过的题
	stats, err = repo.GetQuestionAttemptStats(99, "bank")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAttempts != 0 || stats.CorrectAttempts != 0 {
		t.Fatalf("stats = %+v, want zeros", stats)
	}
}
