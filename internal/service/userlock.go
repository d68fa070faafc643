// internal/service/userlock.go
package service

import "sync"

// userLocks сериализует сверку per-username: проверка пересечения и запись
// для одного пользователя не должны чередоваться между задачами.
// Операции разных пользователей идут параллельно
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock захватывает мьютекс пользователя и возвращает его для Unlock
func (l *userLocks) lock(username string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[username]
	if !ok {
		m = &sync.Mutex{}
		l.locks[username] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
