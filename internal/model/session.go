package model

import "sort"

// Round 一轮进行中的答题：出题时钉住的展示实例。
// 复选题在提交或放弃前不允许重新洗牌，否则用户已勾选的标签
// 会和正确答案标签错位。Review 标记错题练习模式，判分时随记录落库。
type Round struct {
	Bank     string
	Question *DisplayedQuestion
	Multi    bool
	Review   bool
}

// SessionState 单个用户的进程内会话状态
type SessionState struct {
	ActiveBank       string
	PendingSelection map[string]bool
	CurrentRound     *Round
}

// SelectedLabels 返回已勾选标签（A、B、C、D 字典序），用于稳定比较与展示
func (s *SessionState) SelectedLabels() []string {
	if len(s.PendingSelection) == 0 {
		return nil
	}
	labels := make([]string, 0, len(s.PendingSelection))
	for l, on := range s.PendingSelection {
		if on {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}
