package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// QuestionType enumerates the supported question variants. Scoring and
// validation switch exhaustively over this type; a question carries only
// the fields that are meaningful for its variant.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	MultipleSelect QuestionType = "multiple_select"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, MultipleSelect:
		return true
	}
	return false
}

// TrueFalseOptions is the fixed option set for true_false questions.
var TrueFalseOptions = StringList{"True", "False"}

// StringList stores an ordered list of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for StringList")
}

// swagger:model Question
type Question struct {
	UUIDBase
	QuizID  string       `gorm:"index;type:varchar(36)" json:"quizId"`
	Type    QuestionType `gorm:"size:50;not null" json:"type"`
	Prompt  string       `gorm:"type:text;not null" json:"prompt"`
	Options StringList   `gorm:"type:json" json:"options"`
	// CorrectAnswer holds exactly one value for multiple_choice/true_false
	// and one or more values (set semantics) for multiple_select.
	CorrectAnswer StringList `gorm:"type:json" json:"correctAnswer"`
	Points        int        `gorm:"default:1" json:"points"`
	Explanation   string     `gorm:"type:text" json:"explanation"`
	Position      int        `gorm:"default:0" json:"position"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// NewQuestion builds a draft question of the given variant with default
// content, appended at the given position.
func NewQuestion(qType QuestionType, position int) Question {
	q := Question{
		UUIDBase: UUIDBase{ID: GenerateUUID()},
		Type:     qType,
		Points:   1,
		Position: position,
	}
	switch qType {
	case TrueFalse:
		q.Options = append(StringList{}, TrueFalseOptions...)
	case MultipleChoice, MultipleSelect:
		q.Options = StringList{"", ""}
	}
	return q
}

// Clone returns a deep copy of the question under a new identity.
func (q Question) Clone() Question {
	dup := q
	dup.UUIDBase = UUIDBase{ID: GenerateUUID()}
	dup.Options = append(StringList{}, q.Options...)
	dup.CorrectAnswer = append(StringList{}, q.CorrectAnswer...)
	return dup
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o == value {
			return true
		}
	}
	return false
}

// Validate collects the type-specific shape violations for one question.
// The field prefix identifies the question in quiz-level error lists.
func (q Question) Validate(prefix string) ValidationErrors {
	var errs ValidationErrors

	if !q.Type.Valid() {
		errs.Add(prefix+".type", fmt.Sprintf("unknown question type %q", q.Type))
		return errs
	}
	if q.Prompt == "" {
		errs.Add(prefix+".prompt", "prompt is required")
	}
	if q.Points < 1 {
		errs.Add(prefix+".points", "points must be a positive integer")
	}

	switch q.Type {
	case TrueFalse:
		if len(q.Options) != 2 || q.Options[0] != "True" || q.Options[1] != "False" {
			errs.Add(prefix+".options", `options must be ["True","False"]`)
		}
		if len(q.CorrectAnswer) != 1 {
			errs.Add(prefix+".correctAnswer", "exactly one correct answer is required")
		} else if q.CorrectAnswer[0] != "True" && q.CorrectAnswer[0] != "False" {
			errs.Add(prefix+".correctAnswer", `correct answer must be "True" or "False"`)
		}
	case MultipleChoice:
		errs = append(errs, q.validateOptions(prefix)...)
		if len(q.CorrectAnswer) != 1 {
			errs.Add(prefix+".correctAnswer", "exactly one correct answer is required")
		} else if !q.HasOption(q.CorrectAnswer[0]) {
			errs.Add(prefix+".correctAnswer", "correct answer must be one of the options")
		}
	case MultipleSelect:
		errs = append(errs, q.validateOptions(prefix)...)
		if len(q.CorrectAnswer) < 1 {
			errs.Add(prefix+".correctAnswer", "at least one correct answer is required")
		}
		for _, v := range q.CorrectAnswer {
			if !q.HasOption(v) {
				errs.Add(prefix+".correctAnswer", fmt.Sprintf("correct answer %q is not one of the options", v))
			}
		}
	}

	return errs
}

func (q Question) validateOptions(prefix string) ValidationErrors {
	var errs ValidationErrors
	if len(q.Options) < 2 {
		errs.Add(prefix+".options", "at least two options are required")
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		if o == "" {
			errs.Add(prefix+".options", fmt.Sprintf("option %d is empty", i+1))
			continue
		}
		if seen[o] {
			errs.Add(prefix+".options", fmt.Sprintf("option %q is duplicated", o))
		}
		seen[o] = true
	}
	return errs
}
