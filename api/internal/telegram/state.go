package telegram

import (
	"strconv"
	"sync"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// EngineManager: выбранный движок по чатам, по умолчанию движок реестра.
type EngineManager struct {
	engs *forensic.Engines
	m    sync.Map // chatID -> engine name
}

func NewEngineManager(engs *forensic.Engines) *EngineManager {
	return &EngineManager{engs: engs}
}

func (m *EngineManager) Get(chatID int64) (forensic.Engine, error) {
	name := ""
	if v, ok := m.m.Load(chatID); ok {
		name = v.(string)
	}
	return m.engs.GetEngine(name)
}

// Set проверяет имя и запоминает выбор для чата.
func (m *EngineManager) Set(chatID int64, name string) (forensic.Engine, error) {
	eng, err := m.engs.GetEngine(name)
	if err != nil {
		return nil, err
	}
	m.m.Store(chatID, eng.Name())
	return eng, nil
}

func (m *EngineManager) Names() []string { return m.engs.Names() }

func sessionKey(chatID int64) string { return "tg:" + strconv.FormatInt(chatID, 10) }
