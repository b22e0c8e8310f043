package service

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"quizbot_backend/internal/config"
	"quizbot_backend/internal/model"
	"quizbot_backend/internal/repository"
	"quizbot_backend/internal/util"
	"quizbot_backend/pkg/logger"
	"quizbot_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 用户指令，webhook 文本按字面匹配
const (
	cmdSelectPrefix   = "選擇 "
	cmdClearSelection = "清除選擇"
	cmdSubmit         = "提交"
	cmdSwitchBank     = "切換題庫"
	cmdBankListPrefix = "題庫列表"
	cmdSwitchToPrefix = "切換到 "
	cmdNextQuestion   = "下一題"
	cmdStatistics     = "查看統計"
	cmdReview         = "錯題練習"
)

// 题库选择器每页的气泡数，LINE carousel 上限 12
const bankPageSize = 10

// QuizService 答题编排：解析用户动作、驱动会话状态机、写穿持久层。
// 所有内部失败以带类型的 error 返回，由 webhook 控制器统一转成用户可见文案。
type QuizService struct {
	Sessions *SessionService
	Banks    *repository.BankRepository
	Records  *repository.RecordRepository

	DefaultBank string
	WrongLimit  int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewQuizService(sessions *SessionService, banks *repository.BankRepository, records *repository.RecordRepository, cfg *config.BankConfig) *QuizService {
	return &QuizService{
		Sessions:    sessions,
		Banks:       banks,
		Records:     records,
		DefaultBank: cfg.DefaultBank,
		WrongLimit:  cfg.WrongQuestionLimit,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand 注入确定性的随机源，测试用
func (s *QuizService) WithRand(rng *rand.Rand) *QuizService {
	s.rng = rng
	return s
}

// Handle 核心入口：一条用户文本进，若干结构化回复出。
// 未识别的文本回到题库选择器。
func (s *QuizService) Handle(userID, text string) ([]model.Reply, error) {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, cmdSelectPrefix):
		s.observe("select")
		return s.handleSelect(userID, parseLabel(text))

	case text == cmdClearSelection:
		s.observe("clear")
		return s.handleClearSelection(userID)

	case text == cmdSubmit:
		s.observe("submit")
		return s.handleSubmit(userID)

	case text == cmdSwitchBank:
		s.observe("bank_list")
		return s.bankList(1)

	case strings.HasPrefix(text, cmdBankListPrefix):
		s.observe("bank_list")
		page, err := parsePage(strings.TrimPrefix(text, cmdBankListPrefix))
		if err != nil {
			return nil, err
		}
		return s.bankList(page)

	case strings.HasPrefix(text, cmdSwitchToPrefix):
		s.observe("switch_bank")
		bankName := strings.TrimSpace(strings.TrimPrefix(text, cmdSwitchToPrefix))
		return s.serveQuestion(userID, bankName, false)

	case text == cmdNextQuestion:
		s.observe("next_question")
		return s.handleNextQuestion(userID)

	case text == cmdStatistics:
		s.observe("statistics")
		return s.handleStatistics(userID)

	case text == cmdReview:
		s.observe("review")
		return s.handleReview(userID)

	default:
		s.observe("unknown")
		return s.bankChooserPrompt()
	}
}

func (s *QuizService) observe(action string) {
	monitoring.WebhookEventCounter.WithLabelValues(action).Inc()
}

// parseLabel 取 "選擇 B. xxx" 中的标签 "B"
func parseLabel(text string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, cmdSelectPrefix))
	if i := strings.IndexAny(rest, ". "); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, util.ErrInvalidPage
	}
	return page, nil
}

// handleSelect 单选题直接判分，复选题切换勾选并用钉住的标签分配重渲染
func (s *QuizService) handleSelect(userID, label string) ([]model.Reply, error) {
	round := s.Sessions.CurrentRound(userID)
	if round == nil {
		// 没有进行中的题目，回到题库选择
		return s.bankChooserPrompt()
	}

	if _, ok := round.Question.Options[label]; !ok {
		return nil, util.ErrInvalidLabel
	}

	if round.Multi {
		selected := s.Sessions.ToggleSelection(userID, label)
		return []model.Reply{s.questionReply(round, selected)}, nil
	}

	return s.grade(userID, round, []string{label})
}

func (s *QuizService) handleClearSelection(userID string) ([]model.Reply, error) {
	round := s.Sessions.CurrentRound(userID)
	if round == nil {
		return s.bankChooserPrompt()
	}
	s.Sessions.ClearSelection(userID)
	return []model.Reply{s.questionReply(round, nil)}, nil
}

func (s *QuizService) handleSubmit(userID string) ([]model.Reply, error) {
	round := s.Sessions.CurrentRound(userID)
	if round == nil {
		return s.bankChooserPrompt()
	}
	if !round.Multi {
		return []model.Reply{model.TextReply{Text: "單選題點選選項後會直接判分，不需要提交。"}}, nil
	}

	selected := s.Sessions.SelectedLabels(userID)
	if len(selected) == 0 {
		// 状态保持不变，只给提示
		return nil, util.ErrEmptySelection
	}

	return s.grade(userID, round, selected)
}

// grade 判分并落库。复选题按集合严格相等判定，多选少选都算错。
// 持久化失败时当前轮次保持原状，由调用方提示稍后重试。
func (s *QuizService) grade(userID string, round *model.Round, submitted []string) ([]model.Reply, error) {
	sort.Strings(submitted)
	isCorrect := round.Question.Answer.EqualSet(submitted)
	submittedStr := strings.Join(submitted, ",")

	if err := s.Records.RecordAnswer(userID, round.Question, submittedStr, isCorrect, round.Bank, round.Review); err != nil {
		return nil, err
	}

	s.Sessions.ClearCurrentRound(userID)
	monitoring.ObserveAnswer(isCorrect, round.Review)

	return []model.Reply{model.ResultReply{
		Correct:   isCorrect,
		Submitted: submittedStr,
		Question:  round.Question,
		Review:    round.Review,
	}}, nil
}

// serveQuestion 从题库随机抽一题、洗牌后钉进会话，并刷新持久化的用户状态
func (s *QuizService) serveQuestion(userID, bankName string, review bool) ([]model.Reply, error) {
	bank, err := s.Banks.LoadBank(bankName)
	if err != nil {
		return nil, err
	}
	if len(bank.Questions) == 0 {
		return nil, fmt.Errorf("%w：%s", util.ErrNoQuestions, bankName)
	}

	s.rngMu.Lock()
	question := bank.Questions[s.rng.Intn(len(bank.Questions))]
	displayed := ShuffleQuestion(&question, bank.Multi, s.rng)
	s.rngMu.Unlock()

	round := &model.Round{
		Bank:     bankName,
		Question: displayed,
		Multi:    bank.Multi,
		Review:   review,
	}
	s.Sessions.SetActiveBank(userID, bankName)
	s.Sessions.SetCurrentRound(userID, round)

	if err := s.Records.UpsertUserState(userID, bankName); err != nil {
		return nil, err
	}

	return []model.Reply{s.questionReply(round, nil)}, nil
}

func (s *QuizService) handleNextQuestion(userID string) ([]model.Reply, error) {
	bankName := s.Sessions.ActiveBank(userID)
	if bankName == "" {
		// 进程重启后会话丢失，退回持久化的用户状态
		stored, err := s.Records.GetUserState(userID)
		if err != nil {
			return nil, err
		}
		bankName = stored
	}
	if bankName == "" {
		bankName = s.DefaultBank
	}
	return s.serveQuestion(userID, bankName, false)
}

func (s *QuizService) handleStatistics(userID string) ([]model.Reply, error) {
	bankName, err := s.Records.GetUserState(userID)
	if err != nil {
		return nil, err
	}
	if bankName == "" {
		return nil, util.ErrNoActiveBank
	}

	total := s.Banks.CountQuestions(bankName)
	stats, err := s.Records.GetUserStatistics(userID, bankName, total)
	if err != nil {
		return nil, err
	}

	return []model.Reply{model.StatsReply{Bank: bankName, Stats: stats}}, nil
}

// handleReview 错题练习：从错题计数里均匀抽一题，以最近的题目快照为准
// 重新洗牌出题，整轮打上 review 标记，判分时不计入主要统计
func (s *QuizService) handleReview(userID string) ([]model.Reply, error) {
	bankName, err := s.Records.GetUserState(userID)
	if err != nil {
		return nil, err
	}
	if bankName == "" {
		return nil, util.ErrNoActiveBank
	}

	items, err := s.Records.GetWrongQuestions(userID, bankName, s.WrongLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, util.ErrNoWrongQuestion
	}

	s.rngMu.Lock()
	item := items[s.rng.Intn(len(items))]
	s.rngMu.Unlock()

	question := &model.Question{
		ID:           item.Question.ID,
		QuestionText: item.Question.QuestionText,
		Options:      item.Question.Options,
		Answer:       item.Question.Answer,
	}

	// 复选标记以题库当前的 multi 配置为准，题库文件已不存在时按快照答案推断
	multi := len(question.Answer) > 1
	if bank, err := s.Banks.LoadBank(bankName); err == nil {
		multi = bank.Multi
	}

	s.rngMu.Lock()
	displayed := ShuffleQuestion(question, multi, s.rng)
	s.rngMu.Unlock()

	round := &model.Round{
		Bank:     bankName,
		Question: displayed,
		Multi:    multi,
		Review:   true,
	}
	s.Sessions.SetActiveBank(userID, bankName)
	s.Sessions.SetCurrentRound(userID, round)

	if err := s.Records.UpsertUserState(userID, bankName); err != nil {
		return nil, err
	}

	return []model.Reply{s.questionReply(round, nil)}, nil
}

func (s *QuizService) bankList(page int) ([]model.Reply, error) {
	banks, err := s.Banks.ListBanks()
	if err != nil {
		return nil, err
	}
	if len(banks) == 0 {
		return []model.Reply{model.TextReply{Text: "目前沒有可用的題庫。"}}, nil
	}

	totalPages := (len(banks) + bankPageSize - 1) / bankPageSize
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * bankPageSize
	end := start + bankPageSize
	if end > len(banks) {
		end = len(banks)
	}

	return []model.Reply{model.BankListReply{
		Banks:      banks[start:end],
		Page:       page,
		TotalPages: totalPages,
	}}, nil
}

func (s *QuizService) bankChooserPrompt() ([]model.Reply, error) {
	replies, err := s.bankList(1)
	if err != nil {
		return nil, err
	}
	return append([]model.Reply{model.TextReply{Text: "請選擇要練習的題庫："}}, replies...), nil
}

// questionReply 组装题目回复，附带该题全体用户的作答统计（查询失败时省略）
func (s *QuizService) questionReply(round *model.Round, selected []string) model.Reply {
	var attempts *model.AttemptStats
	stats, err := s.Records.GetQuestionAttemptStats(round.Question.ID, round.Bank)
	if err != nil {
		logger.Log.Warn("failed to load question attempt stats",
			zap.Int("question", round.Question.ID), zap.Error(err))
	} else if stats.TotalAttempts > 0 {
		attempts = stats
	}

	return model.QuestionReply{
		Bank:     round.Bank,
		Question: round.Question,
		Multi:    round.Multi,
		Selected: selected,
		Review:   round.Review,
		Attempts: attempts,
	}
}
