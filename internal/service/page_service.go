package service

import (
	"regexp"
	"sync"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

var lessonIDRe = regexp.MustCompile(`lessons/(\d+)`)

// PageService tracks the page the user currently has open. The shim reports
// every navigation; the lesson id drives classification and resets the
// submitter's per-load guard.
type PageService struct {
	mu       sync.RWMutex
	url      string
	lessonID string
	onChange []func(lessonID string)
}

func NewPageService() *PageService {
	return &PageService{}
}

// OnNavigate registers a callback fired whenever the current lesson changes
// (including to "" when leaving a lesson page).
func (s *PageService) OnNavigate(fn func(lessonID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *PageService) SetLocation(rawURL string) {
	lessonID := ExtractLessonID(rawURL)

	s.mu.Lock()
	changed := lessonID != s.lessonID
	s.url = rawURL
	s.lessonID = lessonID
	callbacks := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	if !changed {
		return
	}
	logger.Log.Debug("page navigated", zap.String("lessonId", lessonID))
	for _, fn := range callbacks {
		fn(lessonID)
	}
}

func (s *PageService) CurrentLessonID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lessonID
}

func (s *PageService) CurrentURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// ExtractLessonID pulls the numeric lesson id out of a page URL, "" when the
// URL is not a lesson page.
func ExtractLessonID(rawURL string) string {
	m := lessonIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}
