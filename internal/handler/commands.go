package handler

import (
	"context"
	"strings"

	"leave-bot/pkg/officetime"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)
	case "leaves":
		h.answerLeavesQuery(ctx, message, args)
	}
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	text := "👋 Привет! Я отслеживаю отсутствия.\n\n" +
		"Просто напишите в чат, что вы опаздываете, берете отгул или работаете " +
		"из дома - я сам все пойму и запишу.\n\n" +
		"Вопросы по записям: /leaves <вопрос>"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	h.client.Bot.Send(msg)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := "📋 Как это работает:\n\n" +
		"Сообщения об отсутствии (отпуск, больничный, опоздание, удаленка) " +
		"распознаются и сохраняются автоматически, отвечать на них я не буду.\n\n" +
		"Команды:\n" +
		"/leaves <вопрос> - спросить о сохраненных отсутствиях, например:\n" +
		"/leaves who is on vacation this week\n" +
		"/leaves how many sick days did ivan take last month"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	h.client.Bot.Send(msg)
}

// answerLeavesQuery отвечает на вопрос о сохраненных записях. Сбои
// выполнения дают пустой результат, а не сообщение об ошибке
func (h *Handler) answerLeavesQuery(ctx context.Context, message *tgbotapi.Message, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Использование: /leaves <вопрос о записях>")
		msg.ReplyToMessageID = message.MessageID
		h.client.Bot.Send(msg)
		return
	}

	localTime, err := officetime.Resolve(rawTimestamp(message))
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve query timestamp")
		return
	}

	result := h.queryService.Answer(ctx, question, localTime.String())

	msg := tgbotapi.NewMessage(message.Chat.ID, "Результаты:\n```\n"+result+"\n```")
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := h.client.Bot.Send(msg); err != nil {
		h.logger.WithError(err).Error("Failed to send query results")
	}
}
