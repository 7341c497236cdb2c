package service

import (
	"fmt"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"
)

// QuestionResult is the per-question correctness outcome of one scoring pass.
type QuestionResult struct {
	QuestionID   string `json:"questionId"`
	Correct      bool   `json:"correct"`
	PointsEarned int    `json:"pointsEarned"`
}

// ScoreResult is the outcome of scoring one answer set against a quiz.
type ScoreResult struct {
	Score        float64          `json:"score"` // percent, 0-100
	Passed       bool             `json:"passed"`
	EarnedPoints int              `json:"earnedPoints"`
	TotalPoints  int              `json:"totalPoints"`
	PerQuestion  []QuestionResult `json:"perQuestion"`
}

// ScoreQuiz grades an answer set against a quiz definition. It is a pure
// function: unanswered questions score as incorrect, never as an error, so
// incomplete submissions (manual or timeout-forced) grade normally.
//
// Structural problems are fatal to the scoring pass: a quiz with zero total
// points or an answer referencing a question not in the quiz refuses to
// produce a score rather than divide by zero or silently skip.
func ScoreQuiz(quiz *model.Quiz, answers model.AnswerSet) (*ScoreResult, error) {
	if quiz.TotalPoints() == 0 {
		return nil, util.ErrZeroPointQuiz
	}
	for questionID := range answers {
		if _, ok := quiz.QuestionByID(questionID); !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrUnknownQuestion, questionID)
		}
	}

	result := &ScoreResult{
		PerQuestion: make([]QuestionResult, 0, len(quiz.Questions)),
	}

	for _, q := range quiz.Questions {
		result.TotalPoints += q.Points

		submitted, answered := answers[q.ID]
		correct := answered && answerMatches(q, submitted)

		qr := QuestionResult{QuestionID: q.ID, Correct: correct}
		if correct {
			qr.PointsEarned = q.Points
			result.EarnedPoints += q.Points
		}
		result.PerQuestion = append(result.PerQuestion, qr)
	}

	result.Score = 100 * float64(result.EarnedPoints) / float64(result.TotalPoints)
	result.Passed = result.Score >= float64(quiz.PassingScore)
	return result, nil
}

// answerMatches decides correctness by variant. Single-answer variants
// compare verbatim: the options the learner saw are exactly the canonical
// strings, so no case folding or trimming is applied. multiple_select
// compares as sets with no partial credit.
func answerMatches(q model.Question, submitted model.StringList) bool {
	switch q.Type {
	case model.MultipleChoice, model.TrueFalse:
		return len(submitted) == 1 && len(q.CorrectAnswer) == 1 &&
			submitted[0] == q.CorrectAnswer[0]
	case model.MultipleSelect:
		return setsEqual(submitted, q.CorrectAnswer)
	}
	return false
}

func setsEqual(a, b model.StringList) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	if len(seen) != len(b) {
		return false
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}
