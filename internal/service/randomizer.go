package service

import (
	"math/rand"

	"quizbot_backend/internal/model"
)

// ShuffleQuestion 生成题目的展示实例：标签表（A、B、C、D）保持固定顺序，
// 选项内容按 rng 给出的均匀随机排列重新分配，再换算正确答案标签。
// 不变式：换算后的正确标签指向的选项文字与原题正确选项文字相同。
//
// 两个选项文字完全相同（题库编写错误）时，单选题取字典序靠后的
// 匹配标签（沿用逐个覆盖的旧行为），复选题把所有匹配标签都计入答案。
func ShuffleQuestion(q *model.Question, multi bool, rng *rand.Rand) *model.DisplayedQuestion {
	labels := q.Labels()

	texts := make([]string, len(labels))
	for i, l := range labels {
		texts[i] = q.Options[l]
	}
	rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
	})

	options := make(map[string]string, len(labels))
	for i, l := range labels {
		options[l] = texts[i]
	}

	correctTexts := make(map[string]bool, len(q.Answer))
	for _, l := range q.Answer {
		correctTexts[q.Options[l]] = true
	}

	var answer model.AnswerValue
	if multi {
		for _, l := range labels {
			if correctTexts[options[l]] {
				answer = append(answer, l)
			}
		}
	} else {
		for _, l := range labels {
			if correctTexts[options[l]] {
				answer = model.AnswerValue{l}
			}
		}
	}

	return &model.DisplayedQuestion{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      options,
		Answer:       answer,
	}
}
