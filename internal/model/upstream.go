package model

import "encoding/json"

// LessonResponse is the platform's lesson-by-id payload. The duration comes
// in up to three localized fields; absent and zero both mean "not set".
type LessonResponse struct {
	ID              json.Number `json:"id"`
	IsWatched       bool        `json:"isWatched"`
	VideoDurationEn *float64    `json:"videoDurationEn"`
	VideoDurationKz *float64    `json:"videoDurationKz"`
	VideoDurationRu *float64    `json:"videoDurationRu"`
}

// QuizCheckResponse is the grading endpoint's payload. A non-null
// questionsWithCorrectAnswers means the attempt was already fully correct.
type QuizCheckResponse struct {
	QuestionsWithCorrectAnswers json.RawMessage   `json:"questionsWithCorrectAnswers"`
	History                     []QuizHistoryItem `json:"history"`
}

type QuizHistoryItem struct {
	QuestionText      string       `json:"questionText"`
	QuestionTextRu    string       `json:"questionTextRu"`
	QuestionTextKz    string       `json:"questionTextKz"`
	Answers           []QuizAnswer `json:"answers"`
	CorrectAnswerText string       `json:"correctAnswerText"`
}

type QuizAnswer struct {
	AnswerText   string `json:"answerText"`
	AnswerTextRu string `json:"answerTextRu"`
	AnswerTextKz string `json:"answerTextKz"`
	IsCorrect    bool   `json:"isCorrect"`
}

// VideoState is the value written to the unix-video-state storage key: a
// single-entry object keyed by lesson id.
type VideoState map[string]VideoLessonState

type VideoLessonState struct {
	Token           string   `json:"token"`
	LastWatchedTime *float64 `json:"lastWatchedTime"`
}

// WatchedRequest is the body of the completion acknowledgement POST.
type WatchedRequest struct {
	Token         string `json:"token"`
	VideoDuration int    `json:"videoDuration"`
	VideoWatched  int    `json:"videoWatched"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
