package util

import "errors"

var (
	ErrBankNotFound    = errors.New("找不到題庫")
	ErrNoQuestions     = errors.New("題庫中沒有可用的題目")
	ErrNoCurrentRound  = errors.New("目前沒有進行中的題目")
	ErrInvalidLabel    = errors.New("無效的選項標籤")
	ErrEmptySelection  = errors.New("尚未選擇任何選項")
	ErrNoActiveBank    = errors.New("尚未選擇題庫")
	ErrNoWrongQuestion = errors.New("沒有錯題記錄")
	ErrInvalidPage     = errors.New("頁碼格式不正確")
)
