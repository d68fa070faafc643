package handler

import (
	"context"
	"strconv"
	"time"

	"leave-bot/internal/config"
	"leave-bot/internal/service"
	"leave-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// taskTimeout - потолок на обработку одной задачи (модель + запись).
// По истечении задача считается проваленной, повторов нет
const taskTimeout = time.Minute

type Handler struct {
	client       *telegram.Client
	leaveService *service.LeaveService
	queryService *service.QueryService
	config       *config.BotConfig
	logger       *logrus.Logger
}

func NewHandler(
	client *telegram.Client,
	leaveService *service.LeaveService,
	queryService *service.QueryService,
	cfg *config.BotConfig,
) *Handler {
	return &Handler{
		client:       client,
		leaveService: leaveService,
		queryService: queryService,
		config:       cfg,
		logger:       logrus.New(),
	}
}

// HandleUpdates читает обновления и раздает каждое сообщение отдельной
// горутине. Общего состояния между задачами нет, кроме хранилища
func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			continue
		}

		message := update.Message
		if message.From == nil || message.From.IsBot || message.Text == "" {
			continue
		}

		go h.handleMessage(message)
	}
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.ingestMessage(ctx, message)
}

// ingestMessage прогоняет обычное сообщение через конвейер извлечения.
// Ответ в чат не отправляется: сообщения не про отсутствие молча
// игнорируются, успешное сохранение тоже не анонсируется
func (h *Handler) ingestMessage(ctx context.Context, message *tgbotapi.Message) {
	username := senderUsername(message)
	rawTS := rawTimestamp(message)

	leave, err := h.leaveService.ProcessMessage(ctx, username, rawTS, message.Text)
	if err != nil {
		h.logger.WithError(err).Errorf("Leave ingestion failed for %s", username)
		return
	}
	if leave == nil {
		return
	}

	h.logger.Infof("Stored leave ID %d for %s (%s)", leave.ID, leave.Username, leave.Type)
}

// senderUsername возвращает ключ пользователя: username либо имя
func senderUsername(message *tgbotapi.Message) string {
	if message.From.UserName != "" {
		return message.From.UserName
	}
	return message.From.FirstName
}

// rawTimestamp приводит время сообщения к формату метки платформы
// "<секунды>.<микросекунды>"
func rawTimestamp(message *tgbotapi.Message) string {
	return strconv.FormatInt(int64(message.Date), 10) + ".000000"
}
