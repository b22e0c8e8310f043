package render

import (
	"testing"

	"quizbot_backend/internal/model"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

func sampleQuestion() *model.DisplayedQuestion {
	return &model.DisplayedQuestion{
		ID:           1,
		QuestionText: "題目",
		Options:      map[string]string{"A": "甲", "B": "乙", "C": "丙", "D": "丁"},
		Answer:       model.AnswerValue{"B"},
	}
}

func TestMessagesText(t *testing.T) {
	messages, err := Messages([]model.Reply{model.TextReply{Text: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 {
		t.Fatalf("len = %d", len(messages))
	}
	text, ok := messages[0].(*linebot.TextMessage)
	if !ok {
		t.Fatalf("message = %T, want TextMessage", messages[0])
	}
	if text.Text != "hi" {
		t.Fatalf("text = %q", text.Text)
	}
}

func TestMessagesQuestion(t *testing.T) {
	messages, err := Messages([]model.Reply{model.QuestionReply{
		Bank:     "題庫",
		Question: sampleQuestion(),
		Multi:    true,
		Selected: []string{"A"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	flex, ok := messages[0].(*linebot.FlexMessage)
	if !ok {
		t.Fatalf("message = %T, want FlexMessage", messages[0])
	}
	bubble, ok := flex.Contents.(*linebot.BubbleContainer)
	if !ok {
		t.Fatalf("contents = %T, want BubbleContainer", flex.Contents)
	}
	// 复选题带清除/提交的 footer
	if bubble.Footer == nil {
		t.Fatal("multi question missing footer")
	}
}

func TestMessagesQuestionWithoutPayload(t *testing.T) {
	if _, err := Messages([]model.Reply{model.QuestionReply{Bank: "題庫"}}); err == nil {
		t.Fatal("expected error for missing question")
	}
	if _, err := Messages([]model.Reply{model.ResultReply{Correct: true}}); err == nil {
		t.Fatal("expected error for missing question")
	}
}

func TestMessagesBankListPaging(t *testing.T) {
	messages, err := Messages([]model.Reply{model.BankListReply{
		Banks:      []string{"甲", "乙"},
		Page:       1,
		TotalPages: 2,
	}})
	if err != nil {
		t.Fatal(err)
	}
	flex := messages[0].(*linebot.FlexMessage)
	carousel, ok := flex.Contents.(*linebot.CarouselContainer)
	if !ok {
		t.Fatalf("contents = %T, want CarouselContainer", flex.Contents)
	}
	// 题库气泡 + 翻页气泡
	if len(carousel.Contents) != 3 {
		t.Fatalf("bubbles = %d, want 3", len(carousel.Contents))
	}
}

func TestTruncateLabel(t *testing.T) {
	long := make([]rune, 50)
	for i := range long {
		long[i] = '字'
	}
	got := truncateLabel(string(long))
	if runes := []rune(got); len(runes) != 40 {
		t.Fatalf("len = %d, want 40", len(runes))
	}
	if truncateLabel("short") != "short" {
		t.Fatal("short label must pass through")
	}
}
