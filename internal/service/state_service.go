package service

import (
	"encoding/json"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/util"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

// StateService receives the page-local storage writes the shim mirrors over.
// Every write is persisted; writes to the video-state key additionally run
// the opportunistic watch-token capture. Capture is best-effort: any missing
// field, bad token, or unmet threshold is a silent no-op.
type StateService struct {
	states *repository.StateRepository
	creds  *repository.CredentialRepository
	notify *NotifyService
}

func NewStateService(states *repository.StateRepository, creds *repository.CredentialRepository, notify *NotifyService) *StateService {
	return &StateService{
		states: states,
		creds:  creds,
		notify: notify,
	}
}

// Put persists one mirrored storage write and runs capture when the watched
// key is hit. The write itself always goes through, exactly like the
// original setItem does.
func (s *StateService) Put(key, value string) error {
	if err := s.states.Set(key, value); err != nil {
		return err
	}
	if key == model.KeyVideoState {
		s.captureWatchToken(value)
	}
	return nil
}

func (s *StateService) Get(key string) (string, error) {
	return s.states.Get(key)
}

func (s *StateService) All() ([]model.StateEntry, error) {
	return s.states.All()
}

func (s *StateService) captureWatchToken(raw string) {
	var state model.VideoState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logger.Log.Debug("video state not parseable", zap.Error(err))
		return
	}

	// The value is a single-entry object keyed by lesson id.
	for lessonID, lesson := range state {
		s.tryCapture(lessonID, lesson)
	}
}

func (s *StateService) tryCapture(lessonID string, lesson model.VideoLessonState) {
	if lesson.Token == "" || lesson.LastWatchedTime == nil {
		return
	}

	claims, err := util.DecodeWatchToken(lesson.Token)
	if err != nil {
		logger.Log.Debug("watch token not decodable", zap.String("lessonId", lessonID), zap.Error(err))
		return
	}
	if claims.VideoDuration == nil {
		return
	}
	if *lesson.LastWatchedTime < *claims.VideoDuration {
		return
	}

	current, err := s.creds.Get()
	if err != nil {
		logger.Log.Error("failed to read stored watch token", zap.Error(err))
		return
	}
	if current == lesson.Token {
		return
	}

	if err := s.creds.Set(lesson.Token); err != nil {
		logger.Log.Error("failed to store watch token", zap.Error(err))
		return
	}

	logger.Log.Info("captured new watch token",
		zap.String("lessonId", lessonID),
		zap.Float64("threshold", *claims.VideoDuration),
	)
	s.notify.Push(model.NoticeSuccess, "Новый токен для просмотра видео успешно сохранен! Можете переходить к следующей лекции.")
}
