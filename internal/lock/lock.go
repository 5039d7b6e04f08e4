// Package lock содержит блокировки запусков планировщика.
//
// Блокировка берётся на время одного запуска с TTL: если экземпляр упал,
// не сняв её, следующий запуск станет возможен по истечении TTL.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotHeld возвращается при снятии блокировки, которую держит не этот владелец
var ErrNotHeld = errors.New("lock is not held")

// Locker блокировка запусков по ключу
type Locker interface {
	// Acquire пытается взять блокировку. false без ошибки значит, что она занята.
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, bool, error)
}

// Lease взятая блокировка
type Lease struct {
	key     string
	token   string
	release func(ctx context.Context, key, token string) error
}

// Key ключ блокировки
func (l *Lease) Key() string {
	return l.key
}

// Release снимает блокировку
func (l *Lease) Release(ctx context.Context) error {
	return l.release(ctx, l.key, l.token)
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryLocker блокировка в памяти процесса для запуска одним экземпляром
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryLocker создает новый MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Acquire реализует Locker
func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (*Lease, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expires) {
		return nil, false, nil
	}

	token := uuid.NewString()
	m.entries[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	return &Lease{key: key, token: token, release: m.release}, true, nil
}

func (m *MemoryLocker) release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.token != token {
		return ErrNotHeld
	}
	delete(m.entries, key)
	return nil
}
