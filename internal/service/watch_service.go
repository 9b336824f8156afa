package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"unix_companion/internal/config"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/tap"
	"unix_companion/pkg/logger"
	"unix_companion/pkg/monitoring"

	"go.uber.org/zap"
)

// SubmitState is the submitter's position in its lifecycle. The machine
// always restarts from Idle on page navigation; Succeeded/Invalidated both
// schedule a reload, so each rejection category gets exactly one implicit
// retry per page load.
type SubmitState string

const (
	StateIdle        SubmitState = "idle"
	StateDeciding    SubmitState = "deciding"
	StateSubmitting  SubmitState = "submitting"
	StateSucceeded   SubmitState = "succeeded"
	StateInvalidated SubmitState = "invalidated"
	StateFailed      SubmitState = "failed"
)

// WatchService consumes lesson.loaded events and drives the completion
// acknowledgement against the platform, including stale-credential recovery.
type WatchService struct {
	cfg    *config.Store
	page   *PageService
	auth   *AuthService
	creds  *repository.CredentialRepository
	notify *NotifyService
	client tap.CallbackClient

	mu        sync.Mutex
	state     SubmitState
	attempted map[string]bool
}

func NewWatchService(
	cfg *config.Store,
	page *PageService,
	auth *AuthService,
	creds *repository.CredentialRepository,
	notify *NotifyService,
	client tap.CallbackClient,
) *WatchService {
	s := &WatchService{
		cfg:       cfg,
		page:      page,
		auth:      auth,
		creds:     creds,
		notify:    notify,
		client:    client,
		state:     StateIdle,
		attempted: make(map[string]bool),
	}
	page.OnNavigate(func(string) { s.reset() })
	return s
}

// HandleLessonLoaded is the bus subscriber for lesson.loaded.
func (s *WatchService) HandleLessonLoaded(payload interface{}) {
	ev, ok := payload.(model.LessonLoaded)
	if !ok {
		return
	}
	s.Decide(ev)
}

// State reports the current machine state.
func (s *WatchService) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *WatchService) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.attempted = make(map[string]bool)
}

func (s *WatchService) transition(to SubmitState) {
	logger.Log.Debug("submitter transition", zap.String("from", string(s.state)), zap.String("to", string(to)))
	s.state = to
}

// Decide runs the decision step for one loaded lesson. Events for lessons
// other than the one on screen are ignored; an already-watched lesson only
// notifies.
func (s *WatchService) Decide(ev model.LessonLoaded) {
	s.mu.Lock()
	s.transition(StateDeciding)

	if ev.LessonID != s.page.CurrentLessonID() || s.attempted[ev.LessonID] {
		s.transition(StateIdle)
		s.mu.Unlock()
		return
	}

	if ev.IsWatched {
		s.transition(StateSucceeded)
		s.attempted[ev.LessonID] = true
		s.mu.Unlock()
		s.notify.Push(model.NoticeSuccess, "Видео уже отмечено как просмотренное.")
		return
	}

	s.attempted[ev.LessonID] = true
	s.transition(StateSubmitting)
	s.mu.Unlock()

	s.submit(ev)
}

func (s *WatchService) submit(ev model.LessonLoaded) {
	ctx := context.Background()

	bearer, err := s.auth.BearerToken()
	if err != nil {
		s.fail("Авторизация отсутствует или устарела. Войдите заново.", err)
		return
	}

	if err := s.auth.RefreshXSRF(ctx); err != nil {
		logger.Log.Warn("csrf refresh failed", zap.Error(err))
	}
	xsrf, err := s.auth.XSRFToken()
	if err != nil {
		s.fail("XSRF токен не найден.", err)
		return
	}

	token, err := s.creds.Get()
	if err != nil {
		s.fail("Не удалось прочитать токен просмотра.", err)
		return
	}
	if token == "" {
		s.fail("Токен для отметки видео не найден. Посмотрите любое видео до конца вручную, чтобы скрипт мог его захватить.", nil)
		return
	}

	body, err := json.Marshal(model.WatchedRequest{
		Token:         token,
		VideoDuration: int(math.Floor(ev.Duration)),
		VideoWatched:  int(math.Floor(ev.Duration)),
	})
	if err != nil {
		s.fail("Не удалось сформировать запрос.", err)
		return
	}

	endpoint := fmt.Sprintf("%s/api/lessons/%s/watched", s.cfg.Load().Upstream.BaseURL, ev.LessonID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		s.fail("Не удалось сформировать запрос.", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.AddCookie(&http.Cookie{Name: xsrfCookieName, Value: xsrf})

	s.client.Do(req, func(resp *tap.Response, err error) {
		s.finish(ev, resp, err)
	})
}

func (s *WatchService) finish(ev model.LessonLoaded, resp *tap.Response, err error) {
	switch {
	case err != nil, resp == nil:
		s.mu.Lock()
		s.transition(StateFailed)
		s.mu.Unlock()
		monitoring.SubmissionAttempts.WithLabelValues("error").Inc()
		logger.Log.Error("watched submission failed", zap.String("lessonId", ev.LessonID), zap.Error(err))
		s.notify.Push(model.NoticeError, "Ошибка запроса на отметку видео.")

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		s.mu.Lock()
		s.transition(StateSucceeded)
		s.mu.Unlock()
		monitoring.SubmissionAttempts.WithLabelValues("success").Inc()
		logger.Log.Info("video marked as watched", zap.String("lessonId", ev.LessonID))
		s.notify.PushReload(model.NoticeSuccess, "Видео успешно отмечено как просмотренное!", s.cfg.Load().Submission.ReloadDelayMs)

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		s.mu.Lock()
		s.transition(StateInvalidated)
		s.mu.Unlock()
		monitoring.SubmissionAttempts.WithLabelValues("rejected").Inc()
		if err := s.creds.Clear(); err != nil {
			logger.Log.Error("failed to clear rejected watch token", zap.Error(err))
		}
		logger.Log.Warn("watch token rejected, cleared",
			zap.String("lessonId", ev.LessonID),
			zap.Int("status", resp.StatusCode),
		)
		s.notify.PushReload(model.NoticeWarning,
			"Токен просмотра устарел и был сброшен. Посмотрите любое видео до конца вручную.",
			s.cfg.Load().Submission.ReloadDelayMs)

	default:
		s.mu.Lock()
		s.transition(StateFailed)
		s.mu.Unlock()
		monitoring.SubmissionAttempts.WithLabelValues("failed").Inc()
		logger.Log.Warn("watched submission not accepted",
			zap.String("lessonId", ev.LessonID),
			zap.Int("status", resp.StatusCode),
		)
		s.notify.Push(model.NoticeError, fmt.Sprintf("Не удалось отметить видео (статус %d).", resp.StatusCode))
	}
}

func (s *WatchService) fail(message string, err error) {
	s.mu.Lock()
	s.transition(StateFailed)
	s.mu.Unlock()
	monitoring.SubmissionAttempts.WithLabelValues("missing_credentials").Inc()
	if err != nil {
		logger.Log.Warn("submission aborted", zap.Error(err))
	}
	s.notify.Push(model.NoticeWarning, message)
}
