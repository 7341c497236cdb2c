package service

import (
	"testing"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePastedQuestionsBasic(t *testing.T) {
	text := "1. What is 2+2?\na) 3\nb) 4\nc) 5\n2. Capital of France?\na) Paris\nb) London"

	questions := ParsePastedQuestions(text, 0)
	require.Len(t, questions, 2)

	assert.Equal(t, "What is 2+2?", questions[0].Prompt)
	assert.Equal(t, model.StringList{"3", "4", "5"}, questions[0].Options)
	assert.Equal(t, model.MultipleChoice, questions[0].Type)
	assert.Equal(t, 1, questions[0].Points)
	assert.Equal(t, 0, questions[0].Position)

	assert.Equal(t, "Capital of France?", questions[1].Prompt)
	assert.Equal(t, model.StringList{"Paris", "London"}, questions[1].Options)
	assert.Equal(t, 1, questions[1].Position)
}

func TestParsePastedQuestionsCorrectAnswerNeverInferred(t *testing.T) {
	questions := ParsePastedQuestions("1. Pick one\na) first\nb) second", 0)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].CorrectAnswer)
}

func TestParsePastedQuestionsMarkerVariants(t *testing.T) {
	// Both "1." and "1)" start questions; both "a)" and "A." mark options.
	text := "1) Question one\nA. option one\nb. option two"

	questions := ParsePastedQuestions(text, 0)
	require.Len(t, questions, 1)
	assert.Equal(t, "Question one", questions[0].Prompt)
	assert.Equal(t, model.StringList{"option one", "option two"}, questions[0].Options)
}

func TestParsePastedQuestionsIgnoresNoise(t *testing.T) {
	text := "Chapter review\n\n1. Real question\nsome stray commentary\na) yes\nb) no\n\nfooter text"

	questions := ParsePastedQuestions(text, 0)
	require.Len(t, questions, 1)
	assert.Equal(t, "Real question", questions[0].Prompt)
	assert.Equal(t, model.StringList{"yes", "no"}, questions[0].Options)
}

func TestParsePastedQuestionsOptionBeforeAnyQuestion(t *testing.T) {
	questions := ParsePastedQuestions("a) orphan option\n1. Question\nb) real option", 0)
	require.Len(t, questions, 1)
	assert.Equal(t, model.StringList{"real option"}, questions[0].Options)
}

func TestParsePastedQuestionsEmptyInput(t *testing.T) {
	assert.Empty(t, ParsePastedQuestions("", 0))
	assert.Empty(t, ParsePastedQuestions("\n\n  \n", 0))
	assert.Empty(t, ParsePastedQuestions("no markers anywhere", 0))
}

func TestParsePastedQuestionsQuestionWithoutOptions(t *testing.T) {
	// Kept as a partial draft; activation validation catches it later.
	questions := ParsePastedQuestions("1. Lone question", 0)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].Options)
}

func TestParsePastedQuestionsPositionsContinue(t *testing.T) {
	questions := ParsePastedQuestions("1. First\n2. Second", 3)
	require.Len(t, questions, 2)
	assert.Equal(t, 3, questions[0].Position)
	assert.Equal(t, 4, questions[1].Position)
}
