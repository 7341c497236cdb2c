package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuiz() *Quiz {
	return &Quiz{
		UUIDBase:     UUIDBase{ID: "quiz-1"},
		CourseID:     "course-1",
		Title:        "Module check",
		Description:  "Covers the module",
		PassingScore: 70,
		MaxAttempts:  3,
		Questions: []Question{
			{
				UUIDBase:      UUIDBase{ID: "q1"},
				Type:          MultipleChoice,
				Prompt:        "Pick one",
				Options:       StringList{"a", "b"},
				CorrectAnswer: StringList{"a"},
				Points:        1,
			},
		},
	}
}

func fields(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestQuizValidateCollectsAllViolations(t *testing.T) {
	quiz := &Quiz{
		PassingScore:     150,
		MaxAttempts:      0,
		TimeLimitMinutes: -1,
	}

	errs := quiz.Validate()
	require.True(t, errs.HasErrors())

	got := fields(errs)
	assert.Contains(t, got, "title")
	assert.Contains(t, got, "description")
	assert.Contains(t, got, "courseId")
	assert.Contains(t, got, "passingScore")
	assert.Contains(t, got, "maxAttempts")
	assert.Contains(t, got, "timeLimitMinutes")
}

func TestQuizValidateOK(t *testing.T) {
	assert.False(t, validQuiz().Validate().HasErrors())
}

func TestQuestionValidationByType(t *testing.T) {
	quiz := validQuiz()
	quiz.Questions = []Question{
		{ // multiple_choice with two correct answers and a stray answer
			UUIDBase:      UUIDBase{ID: "q1"},
			Type:          MultipleChoice,
			Prompt:        "Pick",
			Options:       StringList{"a", "a"},
			CorrectAnswer: StringList{"a", "b"},
			Points:        1,
		},
		{ // true_false with tampered options
			UUIDBase:      UUIDBase{ID: "q2"},
			Type:          TrueFalse,
			Prompt:        "Really?",
			Options:       StringList{"Yes", "No"},
			CorrectAnswer: StringList{"True"},
			Points:        1,
		},
		{ // multiple_select whose correct answers are not all options
			UUIDBase:      UUIDBase{ID: "q3"},
			Type:          MultipleSelect,
			Prompt:        "Pick many",
			Options:       StringList{"a", "b"},
			CorrectAnswer: StringList{"a", "z"},
			Points:        1,
		},
	}

	errs := quiz.Validate()
	got := fields(errs)

	assert.Contains(t, got, "questions[0].options")
	assert.Contains(t, got, "questions[0].correctAnswer")
	assert.Contains(t, got, "questions[1].options")
	assert.Contains(t, got, "questions[2].correctAnswer")
}

func TestQuestionValidateUnknownType(t *testing.T) {
	q := Question{Type: QuestionType("essay"), Prompt: "?", Points: 1}
	errs := q.Validate("questions[0]")
	require.True(t, errs.HasErrors())
	assert.Contains(t, fields(errs), "questions[0].type")
}

func TestValidateForActivation(t *testing.T) {
	empty := validQuiz()
	empty.Questions = nil
	assert.Contains(t, fields(empty.ValidateForActivation()), "questions")

	zeroPoints := validQuiz()
	zeroPoints.Questions[0].Points = 0
	got := fields(zeroPoints.ValidateForActivation())
	assert.Contains(t, got, "questions")

	assert.False(t, validQuiz().ValidateForActivation().HasErrors())
}

func TestTotalPointsAndLookup(t *testing.T) {
	quiz := validQuiz()
	quiz.Questions = append(quiz.Questions, Question{
		UUIDBase: UUIDBase{ID: "q2"},
		Type:     TrueFalse,
		Points:   3,
	})

	assert.Equal(t, 4, quiz.TotalPoints())

	q, ok := quiz.QuestionByID("q2")
	require.True(t, ok)
	assert.Equal(t, 3, q.Points)

	_, ok = quiz.QuestionByID("ghost")
	assert.False(t, ok)
}

func TestQuestionCloneIsIndependent(t *testing.T) {
	original := validQuiz().Questions[0]
	dup := original.Clone()

	require.NotEqual(t, original.ID, dup.ID)

	dup.Options[0] = "mutated"
	assert.Equal(t, "a", original.Options[0])
}
