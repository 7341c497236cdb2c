package service

import (
	"regexp"
	"strings"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
)

var (
	questionMarker = regexp.MustCompile(`^\d+[.)]\s`)
	optionMarker   = regexp.MustCompile(`^[a-zA-Z][.)]\s`)
)

// ParsePastedQuestions converts a block of pasted plain text into draft
// multiple_choice questions to cut authoring friction.
//
// A line like "1. ..." starts a new question, a line like "a) ..." appends
// an option to the current one, any other line is ignored. Structure is
// inferred but correctness never is: the parser leaves correctAnswer unset
// for the author to fill in, because silently guessing a correct answer
// would be worse than requiring manual confirmation.
//
// startPosition is the number of questions already in the target quiz;
// positions of parsed questions continue from there.
func ParsePastedQuestions(text string, startPosition int) []model.Question {
	var questions []model.Question
	var current *model.Question

	finalize := func() {
		if current != nil && current.Prompt != "" {
			current.Position = startPosition + len(questions)
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if loc := questionMarker.FindStringIndex(line); loc != nil {
			finalize()
			q := model.Question{
				UUIDBase: model.UUIDBase{ID: model.GenerateUUID()},
				Type:     model.MultipleChoice,
				Prompt:   strings.TrimSpace(line[loc[1]:]),
				Points:   1,
			}
			current = &q
			continue
		}

		if loc := optionMarker.FindStringIndex(line); loc != nil && current != nil {
			current.Options = append(current.Options, strings.TrimSpace(line[loc[1]:]))
			continue
		}

		// Anything else is ignored rather than glued onto the prompt; the
		// author completes partial questions by hand.
	}
	finalize()

	return questions
}
