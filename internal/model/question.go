package model

import (
	"encoding/json"
	"sort"
)

// AnswerValue 题目的正确答案标签集合。
// 题库文件中单选题的 answer 是单个字符串（如 "B"），
// 复选题是字符串数组（如 ["A","C"]），两种形式都能解码。
type AnswerValue []string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AnswerValue{single}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return err
	}
	*a = AnswerValue(multi)
	return nil
}

// MarshalJSON 保持与题库文件相同的形式：单个标签输出字符串，多个输出数组
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Contains 判断标签是否在正确答案集合内
func (a AnswerValue) Contains(label string) bool {
	for _, l := range a {
		if l == label {
			return true
		}
	}
	return false
}

// EqualSet 集合严格相等（无顺序要求），复选题判分规则：多选少选都算错
func (a AnswerValue) EqualSet(labels []string) bool {
	if len(a) != len(labels) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, l := range a {
		set[l] = true
	}
	for _, l := range labels {
		if !set[l] {
			return false
		}
	}
	return true
}

// Question 题库文件中的一道题目
type Question struct {
	ID           int               `json:"id"`
	QuestionText string            `json:"question_text"`
	Options      map[string]string `json:"options"`
	Answer       AnswerValue       `json:"answer"`
}

// Labels 返回题目的固定标签表（按 A、B、C、D 字典序）
func (q *Question) Labels() []string {
	labels := make([]string, 0, len(q.Options))
	for l := range q.Options {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// DisplayedQuestion 题目的一次展示实例：标签表不变，选项内容被随机重排，
// answer 已换算为打乱后持有原正确内容的标签。
// 序列化格式与题库文件一致，答题记录的题目快照直接存这个结构。
type DisplayedQuestion struct {
	ID           int               `json:"id"`
	QuestionText string            `json:"question_text"`
	Options      map[string]string `json:"options"`
	Answer       AnswerValue       `json:"answer"`
}

// Labels 同 Question.Labels
func (q *DisplayedQuestion) Labels() []string {
	labels := make([]string, 0, len(q.Options))
	for l := range q.Options {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Bank 一个命名题库。Multi 为 true 时整个题库按复选题处理
type Bank struct {
	Name      string     `json:"-"`
	Multi     bool       `json:"multi"`
	Questions []Question `json:"questions"`
}
