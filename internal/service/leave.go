// internal/service/leave.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leave-bot/internal/ai"
	"leave-bot/internal/models"
	"leave-bot/internal/repository"
	"leave-bot/pkg/officetime"

	"github.com/sirupsen/logrus"
)

var ErrInvalidInterval = errors.New("invalid interval: start after end")

type LeaveService struct {
	leaveRepo repository.LeaveRepository
	assistant ai.Assistant
	locks     *userLocks
	logger    *logrus.Logger
}

func NewLeaveService(leaveRepo repository.LeaveRepository, assistant ai.Assistant) *LeaveService {
	return &LeaveService{
		leaveRepo: leaveRepo,
		assistant: assistant,
		locks:     newUserLocks(),
		logger:    logrus.New(),
	}
}

// normalizeUsername приводит имя пользователя к ключевой форме
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ProcessMessage прогоняет входящее сообщение через весь конвейер:
// локальное время -> классификация -> извлечение -> сверка с хранилищем.
// Для сообщений не про отсутствие возвращает (nil, nil), ничего не сохраняя
func (s *LeaveService) ProcessMessage(ctx context.Context, username, rawTimestamp, text string) (*models.Leave, error) {
	localTime, err := officetime.Resolve(rawTimestamp)
	if err != nil {
		return nil, err
	}

	related, err := s.assistant.IsAbsenceRelated(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classify message: %w", err)
	}
	if !related {
		return nil, nil
	}

	extraction, err := s.assistant.ExtractLeave(ctx, text, localTime.String())
	if err != nil {
		return nil, fmt.Errorf("extract leave: %w", err)
	}

	candidate := &models.Leave{
		Username:     username,
		OriginalText: extraction.OriginalText,
		StartAt:      extraction.StartAt,
		EndAt:        extraction.EndAt,
		Duration:     extraction.Duration,
		Type:         extraction.Type,
		Reason:       extraction.Reason,
	}
	if candidate.OriginalText == "" {
		candidate.OriginalText = text
	}

	return s.Reconcile(username, candidate)
}

// Reconcile решает, создает ли кандидат новую запись или обновляет
// существующую пересекающуюся запись того же пользователя.
// Пересечение - по закрытым интервалам: запись, кончающаяся ровно в момент
// начала другой, считается пересекающейся. Обновление - полная замена полей
func (s *LeaveService) Reconcile(username string, candidate *models.Leave) (*models.Leave, error) {
	if candidate.StartAt.After(candidate.EndAt) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidInterval,
			candidate.StartAt.Format("2006-01-02 15:04"), candidate.EndAt.Format("2006-01-02 15:04"))
	}

	username = normalizeUsername(username)
	candidate.Username = username

	// Тип вне перечня сводится к OTHER, на сверку он не влияет
	if !models.IsValidLeaveType(candidate.Type) {
		candidate.Type = models.LeaveTypeOther
	}

	mu := s.locks.lock(username)
	defer mu.Unlock()

	existing, err := s.leaveRepo.FindOverlapping(username, candidate.StartAt, candidate.EndAt)
	if err != nil {
		return nil, fmt.Errorf("overlap lookup: %w", err)
	}

	if existing != nil {
		updated, err := s.leaveRepo.Update(existing.ID, candidate)
		if err != nil {
			return nil, fmt.Errorf("update leave: %w", err)
		}
		s.logger.Infof("Updated overlapping leave ID %d for %s", existing.ID, username)
		return updated, nil
	}

	if err := s.leaveRepo.Create(candidate); err != nil {
		return nil, fmt.Errorf("create leave: %w", err)
	}
	s.logger.Infof("Created leave ID %d for %s", candidate.ID, username)
	return candidate, nil
}

// GetUserLeaves возвращает все записи пользователя
func (s *LeaveService) GetUserLeaves(username string) ([]models.Leave, error) {
	return s.leaveRepo.GetByUsername(normalizeUsername(username))
}
