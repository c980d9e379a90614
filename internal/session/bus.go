// session — шина событий сессии.
//
// Через неё транспортный слой (координатор обновления токенов) сообщает
// слою представления, что сессия больше недействительна, не зная ничего
// о UI: оболочка подписывается и сама решает, как показать уведомление
// и куда увести пользователя.
package session

import (
	"context"
	"sync"
)

// Event — имя события сессии.
type Event string

const (
	// EventSessionExpired — обновление токена не удалось, учётные данные стёрты.
	EventSessionExpired Event = "sessionExpired"
	// EventLoggedIn — пользователь вошёл, учётные данные сохранены.
	EventLoggedIn Event = "loggedIn"
	// EventLoggedOut — пользователь вышел сам.
	EventLoggedOut Event = "loggedOut"
)

// Handler — подписчик. Вызывается синхронно в горутине публикующего,
// поэтому не должен блокироваться надолго.
type Handler func(ctx context.Context, e Event)

// ID — идентификатор подписки.
type ID uint64

type subscription struct {
	id ID
	h  Handler
}

// Bus — процессная шина событий. Нулевое значение непригодно, используйте NewBus.
type Bus struct {
	mu   sync.Mutex
	next ID
	subs []subscription
}

// NewBus создаёт пустую шину.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe регистрирует h и возвращает идентификатор подписки.
func (b *Bus) Subscribe(h Handler) ID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.subs = append(b.subs, subscription{id: b.next, h: h})

	return b.next
}

// Unsubscribe снимает подписку. Возвращает false, если её уже нет.
func (b *Bus) Unsubscribe(id ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}

	return false
}

// Publish синхронно уведомляет всех текущих подписчиков в порядке регистрации.
// Итерирует снимок списка: подписчик может отписаться прямо из обработчика.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		s.h(ctx, e)
	}
}

// Len — число активных подписок.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}
