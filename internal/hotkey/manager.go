package hotkey

import "sync"

// Manager отслеживает нажатые клавиши и проверяет комбинацию.
// Состояние комбинации не кэшируется и пересчитывается на каждый запрос.
type Manager struct {
	chord Chord

	mu      sync.Mutex
	pressed map[Key]struct{}
}

// NewManager создаёт менеджер для комбинации.
func NewManager(chord Chord) *Manager {
	return &Manager{
		chord:   chord,
		pressed: make(map[Key]struct{}),
	}
}

// NewManagerFromString разбирает строку и создаёт менеджер.
func NewManagerFromString(s string) (*Manager, error) {
	chord, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return NewManager(chord), nil
}

// Chord возвращает комбинацию менеджера.
func (m *Manager) Chord() Chord {
	return m.chord
}

// Press регистрирует нажатие: добавляет нормализованную и исходную клавишу.
func (m *Manager) Press(k Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pressed[Normalize(k)] = struct{}{}
	m.pressed[k] = struct{}{}
}

// Release регистрирует отпускание: удаляет обе формы клавиши.
func (m *Manager) Release(k Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pressed, Normalize(k))
	delete(m.pressed, k)
}

// Reset очищает набор нажатых клавиш.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.pressed)
}

// Satisfied возвращает true, если вся комбинация сейчас зажата.
func (m *Manager) Satisfied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mod := range m.chord.Modifiers {
		if _, ok := m.pressed[mod]; !ok {
			return false
		}
	}

	trigger := m.chord.Trigger
	if !trigger.IsChar() {
		_, ok := m.pressed[trigger]
		return ok
	}

	// Символьный триггер сравниваем без учёта регистра
	for k := range m.pressed {
		if k.IsChar() && sameChar(k.Char, trigger.Char) {
			return true
		}
	}
	return false
}

// IsChordKey возвращает true, если клавиша входит в комбинацию.
func (m *Manager) IsChordKey(k Key) bool {
	n := Normalize(k)
	for _, mod := range m.chord.Modifiers {
		if mod == n || mod == k {
			return true
		}
	}

	trigger := m.chord.Trigger
	if trigger == n || trigger == k {
		return true
	}
	return trigger.IsChar() && k.IsChar() && sameChar(k.Char, trigger.Char)
}

// Pressed возвращает число клавиш в наборе (обе формы считаются отдельно).
func (m *Manager) Pressed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pressed)
}
