package controller

import (
	"errors"
	"net/http"

	"quizbot_backend/internal/model"
	"quizbot_backend/internal/render"
	"quizbot_backend/internal/service"
	"quizbot_backend/internal/util"
	"quizbot_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"
)

// WebhookController 接收 LINE 平台的 webhook 回调。
// 这是错误处理的唯一边界：编排层返回的带类型 error 在这里
// 统一翻译成用户可见文案，永不把内部错误细节回给用户。
type WebhookController struct {
	Bot  *linebot.Client
	Quiz *service.QuizService
}

func NewWebhookController(bot *linebot.Client, quiz *service.QuizService) *WebhookController {
	return &WebhookController{Bot: bot, Quiz: quiz}
}

// Callback POST /callback
// 签名校验失败回 400，其余情况一律回 200，避免平台反复重试
func (ctl *WebhookController) Callback(c *gin.Context) {
	events, err := ctl.Bot.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			logger.Log.Warn("webhook signature verification failed")
			c.String(http.StatusBadRequest, "invalid signature")
			return
		}
		logger.Log.Warn("failed to parse webhook request", zap.Error(err))
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage {
			continue
		}
		message, ok := event.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}
		ctl.handleText(event.ReplyToken, event.Source.UserID, message.Text)
	}

	c.String(http.StatusOK, "OK")
}

func (ctl *WebhookController) handleText(replyToken, userID, text string) {
	replies, err := ctl.Quiz.Handle(userID, text)
	if err != nil {
		ctl.reply(replyToken, linebot.NewTextMessage(errorText(err)))
		if !isUserError(err) {
			logger.Log.Error("failed to handle webhook text",
				zap.String("user", userID), zap.String("text", text), zap.Error(err))
		}
		return
	}

	messages, err := render.Messages(replies)
	if err != nil {
		// 排版失败降级为纯文本，保证用户总能收到回复
		logger.Log.Error("failed to render replies", zap.Error(err))
		ctl.reply(replyToken, linebot.NewTextMessage(fallbackText(replies)))
		return
	}

	ctl.reply(replyToken, messages...)
}

func (ctl *WebhookController) reply(replyToken string, messages ...linebot.SendingMessage) {
	if _, err := ctl.Bot.ReplyMessage(replyToken, messages...).Do(); err != nil {
		logger.Log.Error("failed to reply message", zap.Error(err))
	}
}

// isUserError 区分用户操作引起的预期错误与真正的内部错误
func isUserError(err error) bool {
	for _, sentinel := range []error{
		util.ErrBankNotFound,
		util.ErrEmptySelection,
		util.ErrInvalidLabel,
		util.ErrInvalidPage,
		util.ErrNoActiveBank,
		util.ErrNoWrongQuestion,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// errorText 把带类型的错误翻译成用户可见文案
func errorText(err error) string {
	switch {
	case errors.Is(err, util.ErrBankNotFound):
		return "抱歉，" + err.Error() + "。請輸入「切換題庫」查看可用題庫。"
	case errors.Is(err, util.ErrNoQuestions):
		return "抱歉，讀取題目時發生錯誤。請稍後再試或切換其他題庫。"
	case errors.Is(err, util.ErrEmptySelection):
		return "請先選擇至少一個選項，再點選提交。"
	case errors.Is(err, util.ErrInvalidLabel):
		return "無效的選項，請點選題目下方的按鈕作答。"
	case errors.Is(err, util.ErrNoActiveBank):
		return "請先選擇題庫開始練習。"
	case errors.Is(err, util.ErrNoWrongQuestion):
		return "目前沒有錯題記錄，繼續保持！"
	case errors.Is(err, util.ErrInvalidPage):
		return "頁碼格式不正確，請輸入數字頁碼。"
	default:
		return "抱歉，系統發生錯誤，請稍後再試。"
	}
}

// fallbackText 排版降级时的纯文本内容
func fallbackText(replies []model.Reply) string {
	for _, reply := range replies {
		if t, ok := reply.(model.TextReply); ok {
			return t.Text
		}
	}
	return "抱歉，訊息顯示異常，請再試一次。"
}
