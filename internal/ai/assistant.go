// internal/ai/assistant.go
package ai

import (
	"context"
	"time"
)

// Extraction - структурированная запись об отсутствии, извлеченная моделью
// из одного сообщения
type Extraction struct {
	StartAt      time.Time
	EndAt        time.Time
	Duration     string
	Reason       string
	Type         string
	OriginalText string
}

// Assistant - контракт модели-коллаборатора. Реализация подставляется
// снаружи, в тестах используются детерминированные заглушки
type Assistant interface {
	// IsAbsenceRelated определяет, относится ли сообщение к отсутствию
	IsAbsenceRelated(ctx context.Context, message string) (bool, error)

	// ExtractLeave извлекает структурированную запись из сообщения.
	// localTime - локальное время получения сообщения (IST)
	ExtractLeave(ctx context.Context, message, localTime string) (*Extraction, error)

	// QueryToSQL превращает вопрос на естественном языке в SQL-запрос
	// к таблице leaves
	QueryToSQL(ctx context.Context, question, localTime string) (string, error)
}
