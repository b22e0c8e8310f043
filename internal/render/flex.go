package render

import (
	"fmt"
	"strings"

	"quizbot_backend/internal/model"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// 题库气泡的封面图，沿用既有素材
const bankCoverURL = "https://i.imgur.com/Uz4FryZ.png"

const (
	colorCorrect = "#00C851"
	colorWrong   = "#ff4444"
	colorPrimary = "#5A8DEE"
)

// Messages 把编排层的结构化回复翻译成 LINE 消息。
// 核心不碰平台排版，排版全部在这一层。
func Messages(replies []model.Reply) ([]linebot.SendingMessage, error) {
	var messages []linebot.SendingMessage
	for _, reply := range replies {
		switch r := reply.(type) {
		case model.TextReply:
			messages = append(messages, linebot.NewTextMessage(r.Text))
		case model.BankListReply:
			messages = append(messages, bankListMessage(r))
		case model.QuestionReply:
			if r.Question == nil {
				return nil, fmt.Errorf("question reply without question")
			}
			messages = append(messages, questionMessage(r))
		case model.ResultReply:
			if r.Question == nil {
				return nil, fmt.Errorf("result reply without question")
			}
			messages = append(messages, resultMessage(r))
		case model.StatsReply:
			messages = append(messages, statsMessage(r))
		default:
			return nil, fmt.Errorf("unknown reply type %T", reply)
		}
	}
	return messages, nil
}

// bankListMessage 题库选择器：每个题库一个气泡，多页时附翻页气泡
func bankListMessage(r model.BankListReply) linebot.SendingMessage {
	var bubbles []*linebot.BubbleContainer
	for _, name := range r.Banks {
		bubbles = append(bubbles, &linebot.BubbleContainer{
			Type: linebot.FlexContainerTypeBubble,
			Size: linebot.FlexBubbleSizeTypeMicro,
			Hero: &linebot.ImageComponent{
				Type:        linebot.FlexComponentTypeImage,
				URL:         bankCoverURL,
				Size:        linebot.FlexImageSizeTypeFull,
				AspectRatio: linebot.FlexImageAspectRatioType20to13,
				AspectMode:  linebot.FlexImageAspectModeTypeCover,
			},
			Body: &linebot.BoxComponent{
				Type:   linebot.FlexComponentTypeBox,
				Layout: linebot.FlexBoxLayoutTypeVertical,
				Contents: []linebot.FlexComponent{
					&linebot.TextComponent{
						Type:   linebot.FlexComponentTypeText,
						Text:   name,
						Weight: linebot.FlexTextWeightTypeBold,
						Size:   linebot.FlexTextSizeTypeSm,
						Wrap:   true,
					},
					&linebot.ButtonComponent{
						Type:   linebot.FlexComponentTypeButton,
						Style:  linebot.FlexButtonStyleTypePrimary,
						Color:  colorPrimary,
						Margin: linebot.FlexComponentMarginTypeMd,
						Action: linebot.NewMessageAction("開始練習", "切換到 "+name),
					},
				},
			},
		})
	}

	if r.TotalPages > 1 {
		bubbles = append(bubbles, pagingBubble(r.Page, r.TotalPages))
	}

	return linebot.NewFlexMessage("選擇題庫", &linebot.CarouselContainer{
		Type:     linebot.FlexContainerTypeCarousel,
		Contents: bubbles,
	})
}

func pagingBubble(page, totalPages int) *linebot.BubbleContainer {
	contents := []linebot.FlexComponent{
		&linebot.TextComponent{
			Type:  linebot.FlexComponentTypeText,
			Text:  fmt.Sprintf("第 %d / %d 頁", page, totalPages),
			Size:  linebot.FlexTextSizeTypeSm,
			Align: linebot.FlexComponentAlignTypeCenter,
		},
	}
	if page > 1 {
		contents = append(contents, &linebot.ButtonComponent{
			Type:   linebot.FlexComponentTypeButton,
			Style:  linebot.FlexButtonStyleTypeSecondary,
			Margin: linebot.FlexComponentMarginTypeMd,
			Action: linebot.NewMessageAction("上一頁", fmt.Sprintf("題庫列表 %d", page-1)),
		})
	}
	if page < totalPages {
		contents = append(contents, &linebot.ButtonComponent{
			Type:   linebot.FlexComponentTypeButton,
			Style:  linebot.FlexButtonStyleTypePrimary,
			Color:  colorPrimary,
			Margin: linebot.FlexComponentMarginTypeMd,
			Action: linebot.NewMessageAction("下一頁", fmt.Sprintf("題庫列表 %d", page+1)),
		})
	}
	return &linebot.BubbleContainer{
		Type: linebot.FlexContainerTypeBubble,
		Size: linebot.FlexBubbleSizeTypeMicro,
		Body: &linebot.BoxComponent{
			Type:     linebot.FlexComponentTypeBox,
			Layout:   linebot.FlexBoxLayoutTypeVertical,
			Contents: contents,
		},
	}
}

// questionMessage 题目气泡。复选题的按钮带勾选标记，
// 并附清除选择与提交按钮
func questionMessage(r model.QuestionReply) linebot.SendingMessage {
	header := "📚 題庫：" + r.Bank
	if r.Review {
		header += "（錯題練習）"
	}

	contents := []linebot.FlexComponent{
		&linebot.TextComponent{
			Type:  linebot.FlexComponentTypeText,
			Text:  header,
			Size:  linebot.FlexTextSizeTypeSm,
			Color: "#888888",
		},
		&linebot.TextComponent{
			Type:   linebot.FlexComponentTypeText,
			Text:   "🧠 題目：" + r.Question.QuestionText,
			Weight: linebot.FlexTextWeightTypeBold,
			Size:   linebot.FlexTextSizeTypeMd,
			Wrap:   true,
			Margin: linebot.FlexComponentMarginTypeMd,
		},
	}

	if r.Attempts != nil && r.Attempts.TotalAttempts > 0 {
		rate := float64(r.Attempts.CorrectAttempts) / float64(r.Attempts.TotalAttempts) * 100
		contents = append(contents, &linebot.TextComponent{
			Type:   linebot.FlexComponentTypeText,
			Text:   fmt.Sprintf("✋ 已有 %d 人次作答，答對率 %.1f%%", r.Attempts.TotalAttempts, rate),
			Size:   linebot.FlexTextSizeTypeXs,
			Color:  "#888888",
			Margin: linebot.FlexComponentMarginTypeSm,
		})
	}

	contents = append(contents, &linebot.SeparatorComponent{
		Type:   linebot.FlexComponentTypeSeparator,
		Margin: linebot.FlexComponentMarginTypeMd,
	})

	selected := make(map[string]bool, len(r.Selected))
	for _, l := range r.Selected {
		selected[l] = true
	}

	optionBox := &linebot.BoxComponent{
		Type:    linebot.FlexComponentTypeBox,
		Layout:  linebot.FlexBoxLayoutTypeVertical,
		Margin:  linebot.FlexComponentMarginTypeMd,
		Spacing: linebot.FlexComponentSpacingTypeSm,
	}
	for _, label := range r.Question.Labels() {
		buttonText := fmt.Sprintf("%s. %s", label, r.Question.Options[label])
		display := buttonText
		if r.Multi {
			mark := "☐"
			if selected[label] {
				mark = "☑"
			}
			display = mark + " " + buttonText
		}
		optionBox.Contents = append(optionBox.Contents, &linebot.ButtonComponent{
			Type:   linebot.FlexComponentTypeButton,
			Style:  linebot.FlexButtonStyleTypeSecondary,
			Height: linebot.FlexButtonHeightTypeSm,
			Action: linebot.NewMessageAction(truncateLabel(display), "選擇 "+buttonText),
		})
	}
	contents = append(contents, optionBox)

	bubble := &linebot.BubbleContainer{
		Type: linebot.FlexContainerTypeBubble,
		Body: &linebot.BoxComponent{
			Type:     linebot.FlexComponentTypeBox,
			Layout:   linebot.FlexBoxLayoutTypeVertical,
			Contents: contents,
		},
	}

	if r.Multi {
		bubble.Footer = &linebot.BoxComponent{
			Type:    linebot.FlexComponentTypeBox,
			Layout:  linebot.FlexBoxLayoutTypeHorizontal,
			Spacing: linebot.FlexComponentSpacingTypeSm,
			Contents: []linebot.FlexComponent{
				&linebot.ButtonComponent{
					Type:   linebot.FlexComponentTypeButton,
					Style:  linebot.FlexButtonStyleTypeSecondary,
					Height: linebot.FlexButtonHeightTypeSm,
					Action: linebot.NewMessageAction("清除選擇", "清除選擇"),
				},
				&linebot.ButtonComponent{
					Type:   linebot.FlexComponentTypeButton,
					Style:  linebot.FlexButtonStyleTypePrimary,
					Color:  colorPrimary,
					Height: linebot.FlexButtonHeightTypeSm,
					Action: linebot.NewMessageAction("提交", "提交"),
				},
			},
		}
	}

	alt := fmt.Sprintf("%s 題目", r.Bank)
	return linebot.NewFlexMessage(alt, bubble)
}

// resultMessage 判分结果气泡
func resultMessage(r model.ResultReply) linebot.SendingMessage {
	verdict := "❌ 答錯了！"
	color := colorWrong
	if r.Correct {
		verdict = "✅ 答對了！"
		color = colorCorrect
	}
	if r.Review {
		verdict += "（錯題練習）"
	}

	var correctTexts []string
	for _, label := range r.Question.Answer {
		correctTexts = append(correctTexts, fmt.Sprintf("%s. %s", label, r.Question.Options[label]))
	}

	bubble := &linebot.BubbleContainer{
		Type: linebot.FlexContainerTypeBubble,
		Body: &linebot.BoxComponent{
			Type:   linebot.FlexComponentTypeBox,
			Layout: linebot.FlexBoxLayoutTypeVertical,
			Contents: []linebot.FlexComponent{
				&linebot.TextComponent{
					Type:   linebot.FlexComponentTypeText,
					Text:   verdict,
					Weight: linebot.FlexTextWeightTypeBold,
					Size:   linebot.FlexTextSizeTypeLg,
					Color:  color,
				},
				&linebot.SeparatorComponent{
					Type:   linebot.FlexComponentTypeSeparator,
					Margin: linebot.FlexComponentMarginTypeMd,
				},
				&linebot.TextComponent{
					Type:   linebot.FlexComponentTypeText,
					Text:   r.Question.QuestionText,
					Size:   linebot.FlexTextSizeTypeMd,
					Wrap:   true,
					Margin: linebot.FlexComponentMarginTypeMd,
				},
				&linebot.TextComponent{
					Type:   linebot.FlexComponentTypeText,
					Text:   "你的答案：" + r.Submitted,
					Size:   linebot.FlexTextSizeTypeSm,
					Color:  "#888888",
					Margin: linebot.FlexComponentMarginTypeMd,
				},
				&linebot.TextComponent{
					Type:   linebot.FlexComponentTypeText,
					Text:   "正確答案：" + strings.Join(correctTexts, "、"),
					Size:   linebot.FlexTextSizeTypeSm,
					Wrap:   true,
					Margin: linebot.FlexComponentMarginTypeSm,
				},
				&linebot.ButtonComponent{
					Type:   linebot.FlexComponentTypeButton,
					Style:  linebot.FlexButtonStyleTypePrimary,
					Color:  colorPrimary,
					Margin: linebot.FlexComponentMarginTypeMd,
					Action: linebot.NewMessageAction("下一題", "下一題"),
				},
			},
		},
	}

	return linebot.NewFlexMessage("題目回顧", bubble)
}

// statsMessage 答题统计气泡：主要指标 + 错题练习指标
func statsMessage(r model.StatsReply) linebot.SendingMessage {
	s := r.Stats
	rows := []linebot.FlexComponent{
		&linebot.TextComponent{
			Type:   linebot.FlexComponentTypeText,
			Text:   "📊 答題統計：" + r.Bank,
			Weight: linebot.FlexTextWeightTypeBold,
			Size:   linebot.FlexTextSizeTypeLg,
		},
		&linebot.SeparatorComponent{
			Type:   linebot.FlexComponentTypeSeparator,
			Margin: linebot.FlexComponentMarginTypeMd,
		},
		statRow("已作答題數", fmt.Sprintf("%d / %d", s.TotalAnswered, s.TotalQuestionsInBank)),
		statRow("答對題數", fmt.Sprintf("%d", s.CorrectAnswered)),
		statRow("正確率", fmt.Sprintf("%.1f%%", s.AccuracyRate)),
		statRow("完成率", fmt.Sprintf("%.1f%%", s.CompletionRate)),
		statRow("累計錯題", fmt.Sprintf("%d", s.TotalWrongQuestions)),
		&linebot.SeparatorComponent{
			Type:   linebot.FlexComponentTypeSeparator,
			Margin: linebot.FlexComponentMarginTypeMd,
		},
		statRow("錯題練習題數", fmt.Sprintf("%d", s.PracticeCount)),
		statRow("錯題練習答對", fmt.Sprintf("%d", s.PracticeCorrect)),
		statRow("錯題練習正確率", fmt.Sprintf("%.1f%%", s.PracticeAccuracyRate)),
		&linebot.ButtonComponent{
			Type:   linebot.FlexComponentTypeButton,
			Style:  linebot.FlexButtonStyleTypePrimary,
			Color:  colorPrimary,
			Margin: linebot.FlexComponentMarginTypeMd,
			Action: linebot.NewMessageAction("錯題練習", "錯題練習"),
		},
	}

	bubble := &linebot.BubbleContainer{
		Type: linebot.FlexContainerTypeBubble,
		Body: &linebot.BoxComponent{
			Type:     linebot.FlexComponentTypeBox,
			Layout:   linebot.FlexBoxLayoutTypeVertical,
			Contents: rows,
		},
	}
	return linebot.NewFlexMessage("答題統計", bubble)
}

func statRow(name, value string) linebot.FlexComponent {
	return &linebot.BoxComponent{
		Type:   linebot.FlexComponentTypeBox,
		Layout: linebot.FlexBoxLayoutTypeHorizontal,
		Margin: linebot.FlexComponentMarginTypeSm,
		Contents: []linebot.FlexComponent{
			&linebot.TextComponent{
				Type:  linebot.FlexComponentTypeText,
				Text:  name,
				Size:  linebot.FlexTextSizeTypeSm,
				Color: "#888888",
			},
			&linebot.TextComponent{
				Type:  linebot.FlexComponentTypeText,
				Text:  value,
				Size:  linebot.FlexTextSizeTypeSm,
				Align: linebot.FlexComponentAlignTypeEnd,
			},
		},
	}
}

// truncateLabel LINE 按鈕 label 上限 40 字元
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= 40 {
		return s
	}
	return string(runes[:39]) + "…"
}
