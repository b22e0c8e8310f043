package service

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"quizbot_backend/internal/config"
	"quizbot_backend/internal/model"
	"quizbot_backend/internal/repository"
	"quizbot_backend/internal/util"
	"quizbot_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

const singleBankJSON = `{
	"questions": [
		{"id": 1, "question_text": "單選題目",
		 "options": {"A": "甲", "B": "乙", "C": "丙", "D": "丁"},
		 "answer": "B"}
	]
}`

const multiBankJSON = `{
	"multi": true,
	"questions": [
		{"id": 1, "question_text": "複選題目",
		 "options": {"A": "甲", "B": "乙", "C": "丙", "D": "丁"},
		 "answer": ["A", "C"]}
	]
}`

type quizHarness struct {
	quiz    *QuizService
	records *repository.RecordRepository
	banks   *repository.BankRepository
}

func newQuizHarness(t *testing.T) *quizHarness {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"單選": singleBankJSON,
		"複選": multiBankJSON,
	} {
		if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.UserState{}, &model.AnswerRecord{}, &model.WrongQuestion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	records := repository.NewRecordRepository(db)
	banks := repository.NewBankRepository(dir)
	cfg := &config.BankConfig{DefaultBank: "單選", WrongQuestionLimit: 10}
	quiz := NewQuizService(NewSessionService(), banks, records, cfg).
		WithRand(rand.New(rand.NewSource(1)))

	return &quizHarness{quiz: quiz, records: records, banks: banks}
}

// serveQuestion 出一题并取回展示实例
func (h *quizHarness) serve(t *testing.T, userID, bank string) model.QuestionReply {
	t.Helper()
	replies, err := h.quiz.Handle(userID, "切換到 "+bank)
	if err != nil {
		t.Fatalf("switch to %s: %v", bank, err)
	}
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
	q, ok := replies[0].(model.QuestionReply)
	if !ok {
		t.Fatalf("reply = %T, want QuestionReply", replies[0])
	}
	return q
}

func TestUnknownTextShowsBankChooser(t *testing.T) {
	h := newQuizHarness(t)

	replies, err := h.quiz.Handle("u1", "你好")
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want prompt + bank list", len(replies))
	}
	if _, ok := replies[0].(model.TextReply); !ok {
		t.Fatalf("replies[0] = %T, want TextReply", replies[0])
	}
	list, ok := replies[1].(model.BankListReply)
	if !ok {
		t.Fatalf("replies[1] = %T, want BankListReply", replies[1])
	}
	if len(list.Banks) != 2 {
		t.Fatalf("banks = %v", list.Banks)
	}
}

func TestSingleChoiceCorrect(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "單選")
	if q.Multi {
		t.Fatal("bank should be single choice")
	}
	// 洗牌后正确标签必须仍指向原正确内容
	correctLabel := q.Question.Answer[0]
	if q.Question.Options[correctLabel] != "乙" {
		t.Fatalf("correct label %s points at %q", correctLabel, q.Question.Options[correctLabel])
	}

	replies, err := h.quiz.Handle("u1", "選擇 "+correctLabel+". "+q.Question.Options[correctLabel])
	if err != nil {
		t.Fatal(err)
	}
	result, ok := replies[0].(model.ResultReply)
	if !ok {
		t.Fatalf("reply = %T, want ResultReply", replies[0])
	}
	if !result.Correct {
		t.Fatal("expected correct verdict")
	}

	// 判分后轮次清空
	if h.quiz.Sessions.CurrentRound("u1") != nil {
		t.Fatal("round should be cleared after grading")
	}

	var count int64
	h.records.DB.Model(&model.AnswerRecord{}).Where("user_id = ?", "u1").Count(&count)
	if count != 1 {
		t.Fatalf("answer_records = %d, want 1", count)
	}
}

func TestSingleChoiceWrong(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "單選")
	var wrongLabel string
	for _, l := range q.Question.Labels() {
		if !q.Question.Answer.Contains(l) {
			wrongLabel = l
			break
		}
	}

	replies, err := h.quiz.Handle("u1", "選擇 "+wrongLabel)
	if err != nil {
		t.Fatal(err)
	}
	if result := replies[0].(model.ResultReply); result.Correct {
		t.Fatal("expected wrong verdict")
	}

	var count int64
	h.records.DB.Model(&model.WrongQuestion{}).Where("user_id = ?", "u1").Count(&count)
	if count != 1 {
		t.Fatalf("wrong_questions = %d, want 1", count)
	}
}

func TestSelectInvalidLabel(t *testing.T) {
	h := newQuizHarness(t)
	h.serve(t, "u1", "單選")

	if _, err := h.quiz.Handle("u1", "選擇 Z"); !errors.Is(err, util.ErrInvalidLabel) {
		t.Fatalf("err = %v, want ErrInvalidLabel", err)
	}
}

func TestSelectWithoutRoundShowsChooser(t *testing.T) {
	h := newQuizHarness(t)

	replies, err := h.quiz.Handle("u1", "選擇 A")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := replies[0].(model.TextReply); !ok {
		t.Fatalf("reply = %T, want chooser prompt", replies[0])
	}
}

func TestMultiChoiceFlow(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "複選")
	if !q.Multi {
		t.Fatal("bank should be multi choice")
	}
	correct := q.Question.Answer
	if len(correct) != 2 {
		t.Fatalf("answer = %v, want two labels", correct)
	}

	// 逐个勾选，期间标签分配保持钉住
	replies, err := h.quiz.Handle("u1", "選擇 "+correct[0])
	if err != nil {
		t.Fatal(err)
	}
	again := replies[0].(model.QuestionReply)
	if again.Question != q.Question {
		t.Fatal("question re-shuffled during selection")
	}
	if len(again.Selected) != 1 || again.Selected[0] != correct[0] {
		t.Fatalf("selected = %v", again.Selected)
	}

	if _, err := h.quiz.Handle("u1", "選擇 "+correct[1]); err != nil {
		t.Fatal(err)
	}

	replies, err = h.quiz.Handle("u1", "提交")
	if err != nil {
		t.Fatal(err)
	}
	if result := replies[0].(model.ResultReply); !result.Correct {
		t.Fatal("exact answer set should be correct")
	}
}

func TestMultiChoicePartialIsWrong(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "複選")
	if _, err := h.quiz.Handle("u1", "選擇 "+q.Question.Answer[0]); err != nil {
		t.Fatal(err)
	}

	replies, err := h.quiz.Handle("u1", "提交")
	if err != nil {
		t.Fatal(err)
	}
	if result := replies[0].(model.ResultReply); result.Correct {
		t.Fatal("partial selection must be graded wrong")
	}
}

func TestSubmitEmptySelection(t *testing.T) {
	h := newQuizHarness(t)
	h.serve(t, "u1", "複選")

	if _, err := h.quiz.Handle("u1", "提交"); !errors.Is(err, util.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	// 拒绝提交后轮次保持不变
	if h.quiz.Sessions.CurrentRound("u1") == nil {
		t.Fatal("round lost after rejected submit")
	}
}

func TestClearSelection(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "複選")
	h.quiz.Handle("u1", "選擇 "+q.Question.Answer[0])

	replies, err := h.quiz.Handle("u1", "清除選擇")
	if err != nil {
		t.Fatal(err)
	}
	if got := replies[0].(model.QuestionReply); len(got.Selected) != 0 {
		t.Fatalf("selected = %v after clear", got.Selected)
	}
}

func TestSubmitOnSingleChoice(t *testing.T) {
	h := newQuizHarness(t)
	h.serve(t, "u1", "單選")

	replies, err := h.quiz.Handle("u1", "提交")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := replies[0].(model.TextReply); !ok {
		t.Fatalf("reply = %T, want hint text", replies[0])
	}
}

func TestNextQuestionUsesStoredState(t *testing.T) {
	h := newQuizHarness(t)
	h.serve(t, "u1", "複選")

	// 进程重启：会话丢失，持久化的用户状态兜底
	restarted := NewQuizService(NewSessionService(), h.banks, h.records,
		&config.BankConfig{DefaultBank: "單選", WrongQuestionLimit: 10}).
		WithRand(rand.New(rand.NewSource(2)))

	replies, err := restarted.Handle("u1", "下一題")
	if err != nil {
		t.Fatal(err)
	}
	if q := replies[0].(model.QuestionReply); q.Bank != "複選" {
		t.Fatalf("bank = %s, want stored 複選", q.Bank)
	}
}

func TestNextQuestionDefaultBank(t *testing.T) {
	h := newQuizHarness(t)

	replies, err := h.quiz.Handle("newcomer", "下一題")
	if err != nil {
		t.Fatal(err)
	}
	if q := replies[0].(model.QuestionReply); q.Bank != "單選" {
		t.Fatalf("bank = %s, want default", q.Bank)
	}
}

func TestSwitchToMissingBank(t *testing.T) {
	h := newQuizHarness(t)

	if _, err := h.quiz.Handle("u1", "切換到 不存在"); !errors.Is(err, util.ErrBankNotFound) {
		t.Fatalf("err = %v, want ErrBankNotFound", err)
	}
}

func TestStatistics(t *testing.T) {
	h := newQuizHarness(t)

	if _, err := h.quiz.Handle("u1", "查看統計"); !errors.Is(err, util.ErrNoActiveBank) {
		t.Fatalf("err = %v, want ErrNoActiveBank", err)
	}

	q := h.serve(t, "u1", "單選")
	h.quiz.Handle("u1", "選擇 "+q.Question.Answer[0])

	replies, err := h.quiz.Handle("u1", "查看統計")
	if err != nil {
		t.Fatal(err)
	}
	stats, ok := replies[0].(model.StatsReply)
	if !ok {
		t.Fatalf("reply = %T, want StatsReply", replies[0])
	}
	if stats.Bank != "單選" {
		t.Fatalf("bank = %s", stats.Bank)
	}
	if stats.Stats.TotalAnswered != 1 || stats.Stats.CorrectAnswered != 1 {
		t.Fatalf("stats = %+v", stats.Stats)
	}
	if stats.Stats.TotalQuestionsInBank != 1 || stats.Stats.CompletionRate != 100 {
		t.Fatalf("completion = %+v", stats.Stats)
	}
}

func TestReviewFlow(t *testing.T) {
	h := newQuizHarness(t)

	// 先答错制造错题
	q := h.serve(t, "u1", "單選")
	var wrongLabel string
	for _, l := range q.Question.Labels() {
		if !q.Question.Answer.Contains(l) {
			wrongLabel = l
			break
		}
	}
	if _, err := h.quiz.Handle("u1", "選擇 "+wrongLabel); err != nil {
		t.Fatal(err)
	}

	replies, err := h.quiz.Handle("u1", "錯題練習")
	if err != nil {
		t.Fatal(err)
	}
	review, ok := replies[0].(model.QuestionReply)
	if !ok {
		t.Fatalf("reply = %T, want QuestionReply", replies[0])
	}
	if !review.Review {
		t.Fatal("review round not flagged")
	}
	// 正确标签仍指向原正确内容
	if review.Question.Options[review.Question.Answer[0]] != "乙" {
		t.Fatalf("review answer points at %q", review.Question.Options[review.Question.Answer[0]])
	}

	replies, err = h.quiz.Handle("u1", "選擇 "+review.Question.Answer[0])
	if err != nil {
		t.Fatal(err)
	}
	result := replies[0].(model.ResultReply)
	if !result.Correct || !result.Review {
		t.Fatalf("result = %+v", result)
	}

	// 错题练习不影响主要统计
	stats, err := h.records.GetUserStatistics("u1", "單選", 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAnswered != 1 || stats.CorrectAnswered != 0 {
		t.Fatalf("primary stats polluted: %+v", stats)
	}
	if stats.PracticeCount != 1 || stats.PracticeCorrect != 1 {
		t.Fatalf("practice stats = %+v", stats)
	}
}

func TestReviewWithoutWrongQuestions(t *testing.T) {
	h := newQuizHarness(t)

	q := h.serve(t, "u1", "單選")
	h.quiz.Handle("u1", "選擇 "+q.Question.Answer[0])

	if _, err := h.quiz.Handle("u1", "錯題練習"); !errors.Is(err, util.ErrNoWrongQuestion) {
		t.Fatalf("err = %v, want ErrNoWrongQuestion", err)
	}
}

func TestBankListPaging(t *testing.T) {
	h := newQuizHarness(t)

	if _, err := h.quiz.Handle("u1", "題庫列表 abc"); !errors.Is(err, util.ErrInvalidPage) {
		t.Fatalf("err = %v, want ErrInvalidPage", err)
	}
	if _, err := h.quiz.Handle("u1", "題庫列表 0"); !errors.Is(err, util.ErrInvalidPage) {
		t.Fatalf("err = %v, want ErrInvalidPage", err)
	}

	// 超出范围的页码收敛到最后一页
	replies, err := h.quiz.Handle("u1", "題庫列表 99")
	if err != nil {
		t.Fatal(err)
	}
	list := replies[0].(model.BankListReply)
	if list.Page != 1 || list.TotalPages != 1 {
		t.Fatalf("page = %d/%d", list.Page, list.TotalPages)
	}
}
