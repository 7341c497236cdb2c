package model

import (
	"fmt"
	"time"
)

// Quiz is the authoring-time definition of one assessment. Question order is
// meaningful: it is the default display and navigation order during delivery.
// swagger:model Quiz
type Quiz struct {
	UUIDBase
	CourseID    string  `gorm:"index;type:varchar(36);not null" json:"courseId"`
	ModuleID    *string `gorm:"index;type:varchar(36)" json:"moduleId,omitempty"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`

	Questions []Question `gorm:"foreignKey:QuizID" json:"questions"`

	PassingScore     int `gorm:"default:70" json:"passingScore"` // percent, 0-100
	MaxAttempts      int `gorm:"default:3" json:"maxAttempts"`
	TimeLimitMinutes int `gorm:"default:0" json:"timeLimitMinutes"` // 0 means unlimited

	ShowFeedback       bool `gorm:"default:true" json:"showFeedback"`
	RandomizeQuestions bool `gorm:"default:false" json:"randomizeQuestions"`
	RandomizeAnswers   bool `gorm:"default:false" json:"randomizeAnswers"`
	CEValidation       bool `gorm:"default:false" json:"ceValidation"`

	IsActive    bool       `gorm:"default:false" json:"isActive"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// TotalPoints sums the point value of every question.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// QuestionByID returns the question with the given id, if present.
func (q *Quiz) QuestionByID(id string) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// Validate checks required fields and every question's type-specific shape.
// It never fails fast: all violations are collected and returned together.
func (q *Quiz) Validate() ValidationErrors {
	var errs ValidationErrors

	if q.Title == "" {
		errs.Add("title", "title is required")
	}
	if q.Description == "" {
		errs.Add("description", "description is required")
	}
	if q.CourseID == "" {
		errs.Add("courseId", "course id is required")
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		errs.Add("passingScore", "passing score must be between 0 and 100")
	}
	if q.MaxAttempts < 1 {
		errs.Add("maxAttempts", "max attempts must be a positive integer")
	}
	if q.TimeLimitMinutes < 0 {
		errs.Add("timeLimitMinutes", "time limit cannot be negative")
	}

	for i, question := range q.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		errs = append(errs, question.Validate(prefix)...)
	}

	return errs
}

// ValidateForActivation runs Validate plus the delivery preconditions: a quiz
// may only be opened for attempts with at least one point-bearing question.
func (q *Quiz) ValidateForActivation() ValidationErrors {
	errs := q.Validate()
	if len(q.Questions) == 0 {
		errs.Add("questions", "quiz must have at least one question before activation")
	} else if q.TotalPoints() == 0 {
		errs.Add("questions", "quiz must have at least one point-bearing question")
	}
	return errs
}
