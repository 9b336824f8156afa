// Package classifier turns tapped upstream responses into typed domain
// events on the bus. Anything it cannot parse or does not recognize is
// dropped silently; the tap never sees an error.
package classifier

import (
	"encoding/json"
	"net/url"
	"regexp"
	"unix_companion/internal/event"
	"unix_companion/internal/model"
	"unix_companion/internal/util"
	"unix_companion/pkg/logger"
	"unix_companion/pkg/monitoring"

	"go.uber.org/zap"
)

var (
	lessonURLRe  = regexp.MustCompile(`/api/lessons/(\d+)`)
	watchedURLRe = regexp.MustCompile(`/api/lessons/\d+/watched`)
	quizCheckRe  = regexp.MustCompile(`/api/quizzes/\d+/check`)
)

// defaultVideoDuration is the fallback when all three localized duration
// fields are absent or zero. Kept exactly as the platform scripts used it.
const defaultVideoDuration = 100

// PageContext supplies the lesson id of the page currently open, "" when the
// user is not on a lesson page.
type PageContext interface {
	CurrentLessonID() string
}

type Classifier struct {
	page PageContext
	bus  *event.Bus
}

func New(page PageContext, bus *event.Bus) *Classifier {
	return &Classifier{page: page, bus: bus}
}

// Match is the tap predicate: only the two known endpoint families are worth
// copying.
func (c *Classifier) Match(u *url.URL) bool {
	return lessonURLRe.MatchString(u.Path) || quizCheckRe.MatchString(u.Path)
}

// Observe classifies a tapped response and publishes the resulting event, if
// any. Wired as the tap's ObserveFunc.
func (c *Classifier) Observe(u *url.URL, body []byte) {
	topic, payload, ok := c.Classify(u, body)
	if !ok {
		return
	}
	monitoring.ClassifiedEvents.WithLabelValues(topic).Inc()
	c.bus.Publish(topic, payload)
}

// Classify pattern-matches the response URL and body. Precedence: lesson by
// id (excluding the /watched sub-path), then quiz check, then nothing.
func (c *Classifier) Classify(u *url.URL, body []byte) (string, interface{}, bool) {
	if lessonURLRe.MatchString(u.Path) && !watchedURLRe.MatchString(u.Path) {
		return c.classifyLesson(u, body)
	}
	if quizCheckRe.MatchString(u.Path) {
		return c.classifyQuizCheck(u, body)
	}
	return "", nil, false
}

func (c *Classifier) classifyLesson(u *url.URL, body []byte) (string, interface{}, bool) {
	var resp model.LessonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logger.Log.Debug("lesson response not parseable", zap.String("url", u.Path), zap.Error(err))
		return "", nil, false
	}

	current := c.page.CurrentLessonID()
	if current == "" || resp.ID.String() != current {
		return "", nil, false
	}

	return model.TopicLessonLoaded, model.LessonLoaded{
		LessonID:  current,
		IsWatched: resp.IsWatched,
		Duration:  pickDuration(&resp),
	}, true
}

func (c *Classifier) classifyQuizCheck(u *url.URL, body []byte) (string, interface{}, bool) {
	var resp model.QuizCheckResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logger.Log.Debug("quiz check response not parseable", zap.String("url", u.Path), zap.Error(err))
		return "", nil, false
	}

	ev := model.QuizChecked{
		AlreadyCorrect: shortcutPresent(resp.QuestionsWithCorrectAnswers),
		History:        toRecords(resp.History),
	}
	return model.TopicQuizChecked, ev, true
}

// pickDuration resolves the localized duration fields in their historical
// precedence: En, Kz, Ru, then the fixed fallback.
func pickDuration(resp *model.LessonResponse) float64 {
	for _, d := range []*float64{resp.VideoDurationEn, resp.VideoDurationKz, resp.VideoDurationRu} {
		if d != nil && *d != 0 {
			return *d
		}
	}
	return defaultVideoDuration
}

func shortcutPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func toRecords(items []model.QuizHistoryItem) []model.QuestionRecord {
	records := make([]model.QuestionRecord, 0, len(items))
	for _, item := range items {
		rec := model.QuestionRecord{
			Variants:          variants(item.QuestionText, item.QuestionTextRu, item.QuestionTextKz),
			CorrectAnswerText: item.CorrectAnswerText,
		}
		for _, a := range item.Answers {
			rec.Options = append(rec.Options, model.AnswerOption{
				Variants:  variants(a.AnswerText, a.AnswerTextRu, a.AnswerTextKz),
				IsCorrect: a.IsCorrect,
			})
		}
		records = append(records, rec)
	}
	return records
}

func variants(texts ...string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if util.Normalize(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
