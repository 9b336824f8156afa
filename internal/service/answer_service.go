package service

import (
	"fmt"
	"sync"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/util"
	"unix_companion/pkg/logger"
	"unix_companion/pkg/monitoring"

	"go.uber.org/zap"
)

// AnswerService consumes quiz.checked events and grows the durable
// question→answers cache. Keys are first-write-wins: a key that already
// holds answers is never overwritten, so earlier (possibly manually curated)
// knowledge survives later partial results.
type AnswerService struct {
	answers *repository.AnswerRepository
	notify  *NotifyService
	mu      sync.Mutex
}

func NewAnswerService(answers *repository.AnswerRepository, notify *NotifyService) *AnswerService {
	return &AnswerService{answers: answers, notify: notify}
}

// HandleQuizChecked is the bus subscriber for quiz.checked.
func (s *AnswerService) HandleQuizChecked(payload interface{}) {
	ev, ok := payload.(model.QuizChecked)
	if !ok {
		return
	}
	if _, err := s.Learn(ev); err != nil {
		logger.Log.Error("failed to update answer cache", zap.Error(err))
	}
}

// Learn merges the correct answers of one graded quiz into the cache and
// returns how many question keys were inserted.
func (s *AnswerService) Learn(ev model.QuizChecked) (int, error) {
	if ev.AlreadyCorrect {
		// Attempt was fully correct already; nothing new to cache.
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, err := s.answers.Load()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, q := range ev.History {
		answers := correctAnswers(q)
		if len(answers) == 0 {
			continue
		}
		for _, variant := range q.Variants {
			key := util.NormalizeQuestionKey(variant)
			if key == "" {
				continue
			}
			if _, exists := mapping[key]; exists {
				continue
			}
			mapping[key] = answers
			inserted++
		}
	}

	if inserted == 0 {
		return 0, nil
	}

	if err := s.answers.Store(mapping); err != nil {
		return 0, err
	}

	monitoring.AnswersLearned.Add(float64(inserted))
	logger.Log.Info("learned answers", zap.Int("count", inserted))
	s.notify.Push(model.NoticeSuccess, fmt.Sprintf("Выучено новых ответов: %d", inserted))
	return inserted, nil
}

// AnswersFor looks up the cached correct answers for a question as rendered
// on screen, in any localization.
func (s *AnswerService) AnswersFor(questionText string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, err := s.answers.Load()
	if err != nil {
		logger.Log.Error("failed to load answer cache", zap.Error(err))
		return nil, false
	}
	answers, ok := mapping[util.NormalizeQuestionKey(questionText)]
	return answers, ok
}

// All returns the whole cached mapping.
func (s *AnswerService) All() (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Load()
}

// correctAnswers collects the normalized, deduplicated text variants of the
// correct options. When no option is marked, the item's correctAnswerText
// is the answer.
func correctAnswers(q model.QuestionRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			continue
		}
		for _, v := range opt.Variants {
			n := util.Normalize(v)
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if len(out) == 0 {
		if n := util.Normalize(q.CorrectAnswerText); n != "" {
			out = append(out, n)
		}
	}
	return out
}
