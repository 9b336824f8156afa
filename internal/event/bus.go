package event

import (
	"sync"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

type Handler func(payload interface{})

// Bus is a minimal in-process publish/subscribe register. Dispatch is
// synchronous and runs handlers in subscription order; a handler failure is
// logged and never reaches the publisher or later handlers.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, h := range handlers {
		b.dispatch(topic, h, payload)
	}
}

func (b *Bus) dispatch(topic string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("event handler panicked",
				zap.String("topic", topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(payload)
}
