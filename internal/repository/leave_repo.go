// internal/repository/leave_repo.go
package repository

import (
	"time"

	"leave-bot/internal/models"

	"gorm.io/gorm"
)

// Row - одна строка результата сырого запроса (имя столбца -> значение)
type Row map[string]interface{}

type LeaveRepository interface {
	Create(leave *models.Leave) error
	Update(id uint, leave *models.Leave) (*models.Leave, error)
	GetByID(id uint) (*models.Leave, error)
	GetByUsername(username string) ([]models.Leave, error)
	FindOverlapping(username string, startAt, endAt time.Time) (*models.Leave, error)
	ExecuteRaw(query string) ([]Row, error)
}

type GormLeaveRepository struct {
	db *gorm.DB
}

func NewGormLeaveRepository(db *gorm.DB) (LeaveRepository, error) {
	if err := db.AutoMigrate(&models.Leave{}); err != nil {
		return nil, err
	}
	return &GormLeaveRepository{db: db}, nil
}

func (r *GormLeaveRepository) Create(leave *models.Leave) error {
	return r.db.Create(leave).Error
}

// Update полностью заменяет поля записи (кроме ID и CreatedAt)
func (r *GormLeaveRepository) Update(id uint, leave *models.Leave) (*models.Leave, error) {
	err := r.db.Model(&models.Leave{}).
		Where("id = ?", id).
		Select("Username", "OriginalText", "StartAt", "EndAt", "Duration", "Type", "Reason").
		Updates(leave).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *GormLeaveRepository) GetByID(id uint) (*models.Leave, error) {
	var leave models.Leave
	err := r.db.First(&leave, id).Error
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

func (r *GormLeaveRepository) GetByUsername(username string) ([]models.Leave, error) {
	var leaves []models.Leave
	err := r.db.Where("username = ?", username).
		Order("start_at DESC").
		Find(&leaves).Error
	return leaves, err
}

// FindOverlapping возвращает первую запись пользователя, чей интервал
// пересекается с [startAt, endAt] (границы включительно), либо nil
func (r *GormLeaveRepository) FindOverlapping(username string, startAt, endAt time.Time) (*models.Leave, error) {
	var leave models.Leave
	err := r.db.Where("username = ? AND start_at <= ? AND end_at >= ?",
		username, endAt, startAt).
		Order("start_at").
		First(&leave).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

// ExecuteRaw выполняет сырой запрос только на чтение и возвращает строки
// с именованными столбцами
func (r *GormLeaveRepository) ExecuteRaw(query string) ([]Row, error) {
	rows, err := r.db.Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := Row{}
		for i, column := range columns {
			value := values[i]
			// Драйвер отдает текстовые столбцы как []byte
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row[column] = value
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
