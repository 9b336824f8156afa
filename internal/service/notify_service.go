package service

import (
	"sync"
	"time"
	"unix_companion/internal/model"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

const noticeBufferSize = 100

// NotifyService is the companion side of the UI sink: notices accumulate in
// a ring buffer that the in-page shim polls and renders as toasts. Reload
// requests travel the same way.
type NotifyService struct {
	mu    sync.Mutex
	seq   uint64
	items []model.Notice
}

func NewNotifyService() *NotifyService {
	return &NotifyService{}
}

func (s *NotifyService) Push(level, message string) {
	s.push(level, message, 0)
}

// PushReload asks the shim to reload the page after delayMs. The reload is
// what re-runs the whole decision pipeline against fresh server state.
func (s *NotifyService) PushReload(level, message string, delayMs int) {
	s.push(level, message, delayMs)
}

func (s *NotifyService) push(level, message string, reloadInMs int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	notice := model.Notice{
		ID:         s.seq,
		Level:      level,
		Message:    message,
		ReloadInMs: reloadInMs,
		CreatedAt:  time.Now(),
	}
	s.items = append(s.items, notice)
	if len(s.items) > noticeBufferSize {
		s.items = s.items[len(s.items)-noticeBufferSize:]
	}

	logger.Log.Info("notice",
		zap.String("level", level),
		zap.String("message", message),
		zap.Int("reloadInMs", reloadInMs),
	)
}

// Since returns all notices with an id greater than after, oldest first.
func (s *NotifyService) Since(after uint64) []model.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notice, 0)
	for _, n := range s.items {
		if n.ID > after {
			out = append(out, n)
		}
	}
	return out
}
