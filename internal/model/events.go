package model

// Event bus topics.
const (
	TopicLessonLoaded = "lesson.loaded"
	TopicQuizChecked  = "quiz.checked"
)

// LessonLoaded is published when the platform returns the lesson currently
// open in the page. Duration is already resolved across the localized
// duration fields.
type LessonLoaded struct {
	LessonID  string
	IsWatched bool
	Duration  float64
}

// AnswerOption is one selectable answer with all its localized renderings.
type AnswerOption struct {
	Variants  []string
	IsCorrect bool
}

// QuestionRecord is one assessed question extracted from a quiz check
// response. Lives only for the duration of one event dispatch.
type QuestionRecord struct {
	Variants          []string
	Options           []AnswerOption
	CorrectAnswerText string
}

// QuizChecked is published for every graded quiz check response.
// AlreadyCorrect means the server short-circuited with a full correct set,
// so there is nothing new to learn.
type QuizChecked struct {
	AlreadyCorrect bool
	History        []QuestionRecord
}
