package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager хранит сессии по ключу: id для HTTP, "tg:<chatID>" для бота.
type Manager struct {
	opts Options
	m    sync.Map // key -> *Session
}

func NewManager(opts Options) *Manager {
	return &Manager{opts: opts.withDefaults()}
}

// Options: общие настройки, с которыми создаются сессии.
func (m *Manager) Options() Options { return m.opts }

func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.opts)
	m.m.Store(s.ID, s)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	if v, ok := m.m.Load(id); ok {
		return v.(*Session), true
	}
	return nil, false
}

func (m *Manager) GetOrCreate(key string) *Session {
	if v, ok := m.m.Load(key); ok {
		return v.(*Session)
	}
	v, _ := m.m.LoadOrStore(key, New(key, m.opts))
	return v.(*Session)
}

func (m *Manager) Delete(id string) bool {
	v, ok := m.m.LoadAndDelete(id)
	if !ok {
		return false
	}
	v.(*Session).Close()
	return true
}

// Sweep удаляет сессии, простаивающие дольше maxIdle, и освобождает их превью.
// Сессии в Analyzing не трогаем.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-maxIdle)
	n := 0
	m.m.Range(func(k, v any) bool {
		s := v.(*Session)
		touched, busy := s.idleSince()
		if !busy && touched.Before(cutoff) {
			if m.Delete(k.(string)) {
				n++
			}
		}
		return true
	})
	return n
}

func (m *Manager) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
