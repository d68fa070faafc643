// internal/service/query.go
package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"leave-bot/internal/ai"
	"leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// QueryService выполняет сгенерированные моделью запросы и безопасно
// сериализует результат. Ошибки выполнения наружу не выходят
type QueryService struct {
	leaveRepo repository.LeaveRepository
	assistant ai.Assistant
	logger    *logrus.Logger
}

func NewQueryService(leaveRepo repository.LeaveRepository, assistant ai.Assistant) *QueryService {
	return &QueryService{
		leaveRepo: leaveRepo,
		assistant: assistant,
		logger:    logrus.New(),
	}
}

// Sanitize нормализует текст запроса от модели: убирает литеральные
// последовательности \n и раскрывает экранированные кавычки \"
func Sanitize(raw string) string {
	query := strings.ReplaceAll(raw, `\n`, "")
	query = strings.ReplaceAll(query, `\"`, `"`)
	return strings.TrimSpace(query)
}

// Execute выполняет запрос и возвращает строки, пригодные для транспорта.
// Любой сбой выполнения дает пустой набор строк - целиком, без частичных
// результатов
func (s *QueryService) Execute(raw string) []repository.Row {
	query := Sanitize(raw)

	rows, err := s.leaveRepo.ExecuteRaw(query)
	if err != nil {
		s.logger.WithError(err).Error("Raw query execution failed")
		return []repository.Row{}
	}

	return convertRows(rows)
}

// convertRows переписывает 64-битные целые в десятичные строки:
// JSON-число такой точности не переживет
func convertRows(rows []repository.Row) []repository.Row {
	result := make([]repository.Row, 0, len(rows))
	for _, row := range rows {
		converted := repository.Row{}
		for column, value := range row {
			switch n := value.(type) {
			case int64:
				converted[column] = strconv.FormatInt(n, 10)
			case uint64:
				converted[column] = strconv.FormatUint(n, 10)
			default:
				converted[column] = value
			}
		}
		result = append(result, converted)
	}
	return result
}

// RenderRows сериализует набор строк для ответа в чат
func RenderRows(rows []repository.Row) string {
	if len(rows) == 0 {
		return "[]"
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Answer отвечает на вопрос на естественном языке: модель генерирует SQL,
// запрос выполняется, результат сериализуется. Сбой на любом шаге
// превращается в пустой результат
func (s *QueryService) Answer(ctx context.Context, question, localTime string) string {
	sqlText, err := s.assistant.QueryToSQL(ctx, question, localTime)
	if err != nil {
		s.logger.WithError(err).Error("Query generation failed")
		return "[]"
	}

	return RenderRows(s.Execute(sqlText))
}
