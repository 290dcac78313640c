// Package preview держит временные ссылки для отрисовки загруженных файлов.
// Каждую ссылку нужно освободить, когда файл заменён или сессия сброшена.
package preview

import (
	"sync"

	"github.com/google/uuid"
)

type Item struct {
	MIMEType string
	Data     []byte
}

type Registry struct {
	mu    sync.Mutex
	items map[string]Item
}

func NewRegistry() *Registry {
	return &Registry{items: map[string]Item{}}
}

// Put регистрирует превью и возвращает его идентификатор.
func (r *Registry) Put(mimeType string, data []byte) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.items[id] = Item{MIMEType: mimeType, Data: data}
	r.mu.Unlock()
	return id
}

func (r *Registry) Get(id string) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	return it, ok
}

// Release освобождает ссылку; пустой или уже освобождённый id игнорируется.
func (r *Registry) Release(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

// Len: число живых ссылок.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
