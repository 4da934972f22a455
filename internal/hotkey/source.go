package hotkey

// Handler получает события нажатия и отпускания клавиш в порядке поступления.
type Handler struct {
	OnPress   func(Key)
	OnRelease func(Key)
}

// Source - источник глобальных событий клавиатуры.
// Сессия подписывается при старте и отписывается при остановке.
type Source interface {
	Subscribe(chord Chord, h Handler) error
	Unsubscribe() error
}
