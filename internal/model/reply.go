package model

// Reply 编排层产出的结构化回复负载。核心只提供数据，
// 平台富消息的排版由 render 层完成。
type Reply interface {
	reply()
}

// TextReply 纯文字回复
type TextReply struct {
	Text string
}

// BankListReply 题库选择器（分页）
type BankListReply struct {
	Banks      []string
	Page       int
	TotalPages int
}

// QuestionReply 题目展示。Selected 为复选题当前已勾选的标签；
// Attempts 为该题全体用户的作答统计，可能为空
type QuestionReply struct {
	Bank     string
	Question *DisplayedQuestion
	Multi    bool
	Selected []string
	Review   bool
	Attempts *AttemptStats
}

// ResultReply 判分结果
type ResultReply struct {
	Correct   bool
	Submitted string
	Question  *DisplayedQuestion
	Review    bool
}

// StatsReply 答题统计
type StatsReply struct {
	Bank  string
	Stats *Statistics
}

func (TextReply) reply()     {}
func (BankListReply) reply() {}
func (QuestionReply) reply() {}
func (ResultReply) reply()   {}
func (StatsReply) reply()    {}

// Statistics 某用户在某题库的聚合统计。去重计数：同一题多次作答只算一题；
// 错题练习的提交单独计入 Practice 指标，不影响主要正确率
type Statistics struct {
	TotalAnswered        int     `json:"totalAnswered"`
	CorrectAnswered      int     `json:"correctAnswered"`
	AccuracyRate         float64 `json:"accuracyRate"`
	TotalWrongQuestions  int     `json:"totalWrongQuestions"`
	TotalQuestionsInBank int     `json:"totalQuestionsInBank"`
	CompletionRate       float64 `json:"completionRate"`
	PracticeCount        int     `json:"practiceCount"`
	PracticeCorrect      int     `json:"practiceCorrect"`
	PracticeAccuracyRate float64 `json:"practiceAccuracyRate"`
}

// AttemptStats 某道题全体用户的作答统计（剔除错题练习）
type AttemptStats struct {
	TotalAttempts   int `json:"totalAttempts"`
	CorrectAttempts int `json:"correctAttempts"`
}
