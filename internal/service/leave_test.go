package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leave-bot/internal/ai"
	"leave-bot/internal/models"
	"leave-bot/internal/repository"
	"leave-bot/pkg/officetime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLeaveRepo - потокобезопасное хранилище в памяти с той же семантикой
// пересечения, что у SQL-предиката в GormLeaveRepository
type fakeLeaveRepo struct {
	mu     sync.Mutex
	nextID uint
	leaves map[uint]*models.Leave

	// lookupDelay расширяет гонку между проверкой и записью
	lookupDelay time.Duration

	rawRows []repository.Row
	rawErr  error
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{nextID: 1, leaves: make(map[uint]*models.Leave)}
}

func (r *fakeLeaveRepo) Create(leave *models.Leave) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	leave.ID = r.nextID
	r.nextID++
	leave.CreatedAt = time.Now()
	leave.UpdatedAt = leave.CreatedAt

	stored := *leave
	r.leaves[leave.ID] = &stored
	return nil
}

func (r *fakeLeaveRepo) Update(id uint, leave *models.Leave) (*models.Leave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.leaves[id]
	if !ok {
		return nil, errors.New("record not found")
	}

	existing.Username = leave.Username
	existing.OriginalText = leave.OriginalText
	existing.StartAt = leave.StartAt
	existing.EndAt = leave.EndAt
	existing.Duration = leave.Duration
	existing.Type = leave.Type
	existing.Reason = leave.Reason
	existing.UpdatedAt = time.Now()

	result := *existing
	return &result, nil
}

func (r *fakeLeaveRepo) GetByID(id uint) (*models.Leave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leave, ok := r.leaves[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	result := *leave
	return &result, nil
}

func (r *fakeLeaveRepo) GetByUsername(username string) ([]models.Leave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Leave
	for _, leave := range r.leaves {
		if leave.Username == username {
			result = append(result, *leave)
		}
	}
	return result, nil
}

func (r *fakeLeaveRepo) FindOverlapping(username string, startAt, endAt time.Time) (*models.Leave, error) {
	r.mu.Lock()
	var found *models.Leave
	for _, leave := range r.leaves {
		if leave.Username != username {
			continue
		}
		// Закрытые интервалы: границы включительно
		if !leave.StartAt.After(endAt) && !leave.EndAt.Before(startAt) {
			if found == nil || leave.StartAt.Before(found.StartAt) {
				copied := *leave
				found = &copied
			}
		}
	}
	r.mu.Unlock()

	if r.lookupDelay > 0 {
		time.Sleep(r.lookupDelay)
	}
	return found, nil
}

func (r *fakeLeaveRepo) ExecuteRaw(query string) ([]repository.Row, error) {
	if r.rawErr != nil {
		return nil, r.rawErr
	}
	return r.rawRows, nil
}

func (r *fakeLeaveRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leaves)
}

// fakeAssistant - детерминированная заглушка модели-коллаборатора
type fakeAssistant struct {
	related     bool
	relatedErr  error
	extraction  *ai.Extraction
	extractErr  error
	sql         string
	sqlErr      error
	extractions int
}

func (a *fakeAssistant) IsAbsenceRelated(ctx context.Context, message string) (bool, error) {
	return a.related, a.relatedErr
}

func (a *fakeAssistant) ExtractLeave(ctx context.Context, message, localTime string) (*ai.Extraction, error) {
	a.extractions++
	return a.extraction, a.extractErr
}

func (a *fakeAssistant) QueryToSQL(ctx context.Context, question, localTime string) (string, error) {
	return a.sql, a.sqlErr
}

func day(d, hour int) time.Time {
	return time.Date(2023, time.November, d, hour, 0, 0, 0, officetime.IST)
}

func candidate(username string, start, end time.Time) *models.Leave {
	return &models.Leave{
		Username:     username,
		OriginalText: "taking time off",
		StartAt:      start,
		EndAt:        end,
		Duration:     "Full day",
		Type:         models.LeaveTypeVacation,
	}
}

func TestReconcileCreatesWhenNoOverlap(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	leave, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
	require.NoError(t, err)
	assert.Equal(t, uint(1), leave.ID)
	assert.Equal(t, 1, repo.count())

	// Следующий день не пересекается - вторая запись
	leave, err = svc.Reconcile("alice", candidate("alice", day(16, 9), day(16, 18)))
	require.NoError(t, err)
	assert.Equal(t, uint(2), leave.ID)
	assert.Equal(t, 2, repo.count())
}

func TestReconcileUpdatesOnOverlap(t *testing.T) {
	cases := []struct {
		name         string
		start1, end1 time.Time
		start2, end2 time.Time
		wantUpdate   bool
	}{
		{"contained", day(15, 9), day(15, 18), day(15, 12), day(15, 14), true},
		{"containing", day(15, 12), day(15, 14), day(15, 9), day(15, 18), true},
		{"partial overlap", day(15, 9), day(15, 13), day(15, 12), day(15, 18), true},
		{"touching boundary", day(15, 9), day(15, 13), day(15, 13), day(15, 18), true},
		{"identical", day(15, 9), day(15, 18), day(15, 9), day(15, 18), true},
		{"disjoint same day", day(15, 9), day(15, 11), day(15, 12), day(15, 14), false},
		{"disjoint next day", day(15, 9), day(15, 18), day(16, 9), day(16, 18), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeLeaveRepo()
			svc := NewLeaveService(repo, &fakeAssistant{})

			first, err := svc.Reconcile("alice", candidate("alice", tc.start1, tc.end1))
			require.NoError(t, err)

			second, err := svc.Reconcile("alice", candidate("alice", tc.start2, tc.end2))
			require.NoError(t, err)

			if tc.wantUpdate {
				assert.Equal(t, first.ID, second.ID)
				assert.Equal(t, 1, repo.count())
			} else {
				assert.NotEqual(t, first.ID, second.ID)
				assert.Equal(t, 2, repo.count())
			}
		})
	}
}

func TestReconcileUpdateIsFullReplace(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	first := candidate("alice", day(15, 9), day(15, 18))
	first.OriginalText = "leaving early"
	first.Reason = "errand"
	_, err := svc.Reconcile("alice", first)
	require.NoError(t, err)

	refined := &models.Leave{
		Username:     "alice",
		OriginalText: "actually back by 3pm",
		StartAt:      day(15, 13),
		EndAt:        day(15, 15),
		Duration:     "2 hours",
		Type:         models.LeaveTypeSick,
		Reason:       "doctor",
	}
	updated, err := svc.Reconcile("alice", refined)
	require.NoError(t, err)

	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, "actually back by 3pm", updated.OriginalText)
	assert.Equal(t, models.LeaveTypeSick, updated.Type)
	assert.Equal(t, "doctor", updated.Reason)
	assert.Equal(t, "2 hours", updated.Duration)
	assert.True(t, updated.StartAt.Equal(day(15, 13)))
	assert.True(t, updated.EndAt.Equal(day(15, 15)))
	assert.Equal(t, 1, repo.count())
}

func TestReconcileIdempotentResubmission(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	_, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
	require.NoError(t, err)

	second, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
	require.NoError(t, err)

	assert.Equal(t, uint(1), second.ID)
	assert.Equal(t, 1, repo.count())
}

func TestReconcileZeroLengthInterval(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	at := day(15, 12)
	_, err := svc.Reconcile("alice", candidate("alice", at, at))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.count())

	// Момент лежит внутри существующего интервала - обновление
	inside, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
	require.NoError(t, err)
	assert.Equal(t, uint(1), inside.ID)
	assert.Equal(t, 1, repo.count())

	// Соседний момент не пересекается - новая запись
	repo2 := newFakeLeaveRepo()
	svc2 := NewLeaveService(repo2, &fakeAssistant{})
	_, err = svc2.Reconcile("alice", candidate("alice", at, at))
	require.NoError(t, err)
	_, err = svc2.Reconcile("alice", candidate("alice", day(15, 13), day(15, 13)))
	require.NoError(t, err)
	assert.Equal(t, 2, repo2.count())
}

func TestReconcileCrossUserIndependent(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	_, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
	require.NoError(t, err)

	// Тот же интервал другого пользователя пересечением не считается
	leave, err := svc.Reconcile("bob", candidate("bob", day(15, 9), day(15, 18)))
	require.NoError(t, err)
	assert.Equal(t, uint(2), leave.ID)
	assert.Equal(t, 2, repo.count())
}

func TestReconcileNormalizesUsername(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	first, err := svc.Reconcile("  Alice ", candidate("", day(15, 9), day(15, 18)))
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)

	// Другое написание того же имени попадает в тот же таймлайн
	second, err := svc.Reconcile("ALICE", candidate("", day(15, 10), day(15, 12)))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())
}

func TestReconcileUnknownTypeDefaultsToOther(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	c := candidate("alice", day(15, 9), day(15, 18))
	c.Type = "LUNCH"
	leave, err := svc.Reconcile("alice", c)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveTypeOther, leave.Type)
}

func TestReconcileRejectsInvalidInterval(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{})

	_, err := svc.Reconcile("alice", candidate("alice", day(15, 18), day(15, 9)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.Equal(t, 0, repo.count())
}

func TestReconcileConcurrentSameUser(t *testing.T) {
	repo := newFakeLeaveRepo()
	repo.lookupDelay = 10 * time.Millisecond
	svc := NewLeaveService(repo, &fakeAssistant{})

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reconcile("alice", candidate("alice", day(15, 9), day(15, 18)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Все кандидаты пересекаются: первая запись создается,
	// остальные обязаны ее обновить
	assert.Equal(t, 1, repo.count())
}

func TestReconcileConcurrentDifferentUsers(t *testing.T) {
	repo := newFakeLeaveRepo()
	repo.lookupDelay = 5 * time.Millisecond
	svc := NewLeaveService(repo, &fakeAssistant{})

	users := []string{"alice", "bob", "carol", "dave"}
	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := svc.Reconcile(u, candidate(u, day(15, 9), day(15, 18)))
			assert.NoError(t, err)
		}(user)
	}
	wg.Wait()

	assert.Equal(t, len(users), repo.count())
}

func TestProcessMessageStoresExtractedLeave(t *testing.T) {
	repo := newFakeLeaveRepo()
	assistant := &fakeAssistant{
		related: true,
		extraction: &ai.Extraction{
			StartAt:      day(15, 9),
			EndAt:        day(15, 18),
			Duration:     "Full day",
			Type:         models.LeaveTypeSick,
			Reason:       "fever",
			OriginalText: "not feeling well, taking sick leave",
		},
	}
	svc := NewLeaveService(repo, assistant)

	leave, err := svc.ProcessMessage(context.Background(), "Alice", "1700000000.500000", "not feeling well, taking sick leave")
	require.NoError(t, err)
	require.NotNil(t, leave)

	assert.Equal(t, "alice", leave.Username)
	assert.Equal(t, models.LeaveTypeSick, leave.Type)
	assert.Equal(t, "not feeling well, taking sick leave", leave.OriginalText)
	assert.Equal(t, 1, repo.count())
}

func TestProcessMessageSkipsUnrelated(t *testing.T) {
	repo := newFakeLeaveRepo()
	assistant := &fakeAssistant{related: false}
	svc := NewLeaveService(repo, assistant)

	leave, err := svc.ProcessMessage(context.Background(), "alice", "1700000000.500000", "good morning everyone")
	require.NoError(t, err)
	assert.Nil(t, leave)
	assert.Equal(t, 0, repo.count())
	assert.Equal(t, 0, assistant.extractions)
}

func TestProcessMessageMalformedTimestamp(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc := NewLeaveService(repo, &fakeAssistant{related: true})

	_, err := svc.ProcessMessage(context.Background(), "alice", "abc", "taking tomorrow off")
	require.Error(t, err)
	assert.ErrorIs(t, err, officetime.ErrMalformedTimestamp)
	assert.Equal(t, 0, repo.count())
}

func TestProcessMessageClassifierFailure(t *testing.T) {
	repo := newFakeLeaveRepo()
	assistant := &fakeAssistant{relatedErr: errors.New("model unavailable")}
	svc := NewLeaveService(repo, assistant)

	_, err := svc.ProcessMessage(context.Background(), "alice", "1700000000.500000", "taking tomorrow off")
	require.Error(t, err)
	assert.Equal(t, 0, repo.count())
}

func TestProcessMessageExtractionFailure(t *testing.T) {
	repo := newFakeLeaveRepo()
	assistant := &fakeAssistant{related: true, extractErr: errors.New("bad json")}
	svc := NewLeaveService(repo, assistant)

	_, err := svc.ProcessMessage(context.Background(), "alice", "1700000000.500000", "taking tomorrow off")
	require.Error(t, err)
	assert.Equal(t, 0, repo.count())
}
