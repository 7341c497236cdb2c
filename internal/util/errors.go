package util

import "errors"

var (
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizNotActive       = errors.New("quiz not active")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrInvalidQuestionType = errors.New("unknown question type")
	ErrIndexOutOfRange     = errors.New("question index out of range")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrMaxAttemptsUsed     = errors.New("maximum attempts reached")
	ErrSessionNotFound     = errors.New("delivery session not found")
	ErrSessionNotOpen      = errors.New("delivery session is not in progress")
	ErrSessionSubmitted    = errors.New("delivery session already submitted")
	ErrZeroPointQuiz       = errors.New("quiz has no point-bearing questions")
	ErrUnknownQuestion     = errors.New("answer references a question not in the quiz")
	ErrSubmissionFailed    = errors.New("attempt could not be persisted")
	ErrPermissionDenied    = errors.New("permission denied")
)
