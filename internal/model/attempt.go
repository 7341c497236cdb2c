package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AnswerSet maps question id to the submitted value(s). Single-answer
// variants carry exactly one element; multiple_select carries a set whose
// order is irrelevant. Stored as a JSON column.
type AnswerSet map[string]StringList

func (a AnswerSet) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *AnswerSet) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("unsupported type for AnswerSet")
}

// Clone returns an independent copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return nil
	}
	dup := make(AnswerSet, len(a))
	for k, v := range a {
		dup[k] = append(StringList{}, v...)
	}
	return dup
}

// Attempt is one learner's completed delivery session. Attempts are written
// once at submission time and never mutated afterwards.
// swagger:model Attempt
type Attempt struct {
	UUIDBase
	QuizID string `gorm:"index;type:varchar(36);not null" json:"quizId"`
	UserID string `gorm:"index;type:varchar(36);not null" json:"userId"`

	Answers AnswerSet `gorm:"type:json" json:"answers"`

	Score  float64 `gorm:"not null" json:"score"` // percent, 0-100
	Passed bool    `gorm:"default:false" json:"passed"`

	StartedAt        time.Time `json:"startedAt"`
	CompletedAt      time.Time `json:"completedAt"`
	TimeSpentSeconds int       `gorm:"default:0" json:"timeSpentSeconds"`
	AttemptNumber    int       `gorm:"default:1" json:"attemptNumber"`

	// TimedOut marks a timeout-forced submission; it follows the identical
	// scoring path as a manual one and only affects presentation.
	TimedOut bool `gorm:"default:false" json:"timedOut"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}
