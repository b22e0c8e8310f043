package service

import (
	"sync"

	"quizbot_backend/internal/model"
)

// SessionService 进程内会话状态，按用户隔离。
// 状态随进程消失：进行中的一轮答题不做持久化。
// 单把互斥锁覆盖全部读改写序列，同一用户的并发操作（快速连点）
// 也被串行化，不会出现半更新的会话。
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionState
}

func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*model.SessionState),
	}
}

// state 取出或创建用户会话，调用方必须已持有锁
func (s *SessionService) state(userID string) *model.SessionState {
	st, ok := s.sessions[userID]
	if !ok {
		st = &model.SessionState{
			PendingSelection: make(map[string]bool),
		}
		s.sessions[userID] = st
	}
	return st
}

// ActiveBank 返回用户会话中的当前题库名，未设置时为空串
func (s *SessionService) ActiveBank(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		return st.ActiveBank
	}
	return ""
}

func (s *SessionService) SetActiveBank(userID, bankName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(userID).ActiveBank = bankName
}

// SetCurrentRound 整体替换当前轮次并清空勾选。
// 复选题一轮内的标签分配在这里钉住，后续重渲染复用同一个 Round。
func (s *SessionService) SetCurrentRound(userID string, round *model.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	st.CurrentRound = round
	st.PendingSelection = make(map[string]bool)
}

// CurrentRound 返回进行中的轮次，没有则为 nil
func (s *SessionService) CurrentRound(userID string) *model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		return st.CurrentRound
	}
	return nil
}

// ToggleSelection 切换某个标签的勾选状态，返回更新后的标签集合（字典序）
func (s *SessionService) ToggleSelection(userID, label string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	if st.PendingSelection[label] {
		delete(st.PendingSelection, label)
	} else {
		st.PendingSelection[label] = true
	}
	return st.SelectedLabels()
}

// SelectedLabels 当前已勾选的标签集合（字典序）
func (s *SessionService) SelectedLabels(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		return st.SelectedLabels()
	}
	return nil
}

func (s *SessionService) ClearSelection(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		st.PendingSelection = make(map[string]bool)
	}
}

// ClearCurrentRound 答题结束后清掉当前轮次与勾选
func (s *SessionService) ClearCurrentRound(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		st.CurrentRound = nil
		st.PendingSelection = make(map[string]bool)
	}
}
