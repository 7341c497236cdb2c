package service

import (
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/repository"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"
)

// QuizService applies discrete author actions to a quiz draft. Each action
// mutates the in-memory Quiz value and persists the result as one snapshot;
// drafts may be incomplete, full validation gates activation.
type QuizService struct {
	Repo *repository.QuizRepository
}

func NewQuizService(repo *repository.QuizRepository) *QuizService {
	return &QuizService{Repo: repo}
}

type QuizRequest struct {
	CourseID    string  `json:"courseId" binding:"required"`
	ModuleID    *string `json:"moduleId"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`

	PassingScore     *int `json:"passingScore"`
	MaxAttempts      *int `json:"maxAttempts"`
	TimeLimitMinutes *int `json:"timeLimitMinutes"`

	ShowFeedback       *bool `json:"showFeedback"`
	RandomizeQuestions *bool `json:"randomizeQuestions"`
	RandomizeAnswers   *bool `json:"randomizeAnswers"`
	CEValidation       *bool `json:"ceValidation"`
}

func (s *QuizService) CreateQuiz(req QuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		CourseID:     req.CourseID,
		ModuleID:     req.ModuleID,
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: 70,
		MaxAttempts:  3,
		ShowFeedback: true,
	}
	applySettings(quiz, req)

	if errs := quiz.Validate(); errs.HasErrors() {
		return nil, errs
	}
	if err := s.Repo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// UpdateQuiz merges quiz-level settings. Violations are returned as one
// batch and nothing is persisted until they are resolved.
func (s *QuizService) UpdateQuiz(quizID string, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, err
	}

	quiz.CourseID = req.CourseID
	quiz.ModuleID = req.ModuleID
	quiz.Title = req.Title
	quiz.Description = req.Description
	applySettings(quiz, req)

	if errs := quiz.Validate(); errs.HasErrors() {
		return nil, errs
	}
	if err := s.Repo.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func applySettings(quiz *model.Quiz, req QuizRequest) {
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.ShowFeedback != nil {
		quiz.ShowFeedback = *req.ShowFeedback
	}
	if req.RandomizeQuestions != nil {
		quiz.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.RandomizeAnswers != nil {
		quiz.RandomizeAnswers = *req.RandomizeAnswers
	}
	if req.CEValidation != nil {
		quiz.CEValidation = *req.CEValidation
	}
}

func (s *QuizService) GetQuiz(quizID string) (*model.Quiz, error) {
	return s.Repo.FindByID(quizID)
}

func (s *QuizService) ListQuizzes(courseID string, page, limit int) ([]model.Quiz, int64, error) {
	return s.Repo.List(courseID, page, limit)
}

func (s *QuizService) DeleteQuiz(quizID string) error {
	return s.Repo.Delete(quizID)
}

// Activate opens a quiz for delivery after the full validation pass:
// non-empty question list, every shape invariant, at least one point.
func (s *QuizService) Activate(quizID string) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if errs := quiz.ValidateForActivation(); errs.HasErrors() {
		return nil, errs
	}
	now := time.Now()
	quiz.IsActive = true
	quiz.ActivatedAt = &now
	if err := s.Repo.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Deactivate(quizID string) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	quiz.IsActive = false
	if err := s.Repo.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// ---- question-level author actions ----
//
// The functions below are pure: they transform the Quiz value and leave
// persistence to the calling operation. This keeps every action unit-testable
// without a database.

// AddQuestion appends a new question of the given variant with default
// content at the end of the sequence.
func AddQuestion(quiz *model.Quiz, qType model.QuestionType) (*model.Question, error) {
	if !qType.Valid() {
		return nil, util.ErrInvalidQuestionType
	}
	q := model.NewQuestion(qType, len(quiz.Questions))
	q.QuizID = quiz.ID
	quiz.Questions = append(quiz.Questions, q)
	return &quiz.Questions[len(quiz.Questions)-1], nil
}

type QuestionUpdate struct {
	Prompt        *string   `json:"prompt"`
	Options       *[]string `json:"options"`
	CorrectAnswer *[]string `json:"correctAnswer"`
	Points        *int      `json:"points"`
	Explanation   *string   `json:"explanation"`
}

// UpdateQuestion merges fields into the question at index.
func UpdateQuestion(quiz *model.Quiz, index int, upd QuestionUpdate) error {
	if index < 0 || index >= len(quiz.Questions) {
		return util.ErrIndexOutOfRange
	}
	q := &quiz.Questions[index]
	if upd.Prompt != nil {
		q.Prompt = *upd.Prompt
	}
	if upd.Options != nil && q.Type != model.TrueFalse {
		q.Options = model.StringList(*upd.Options)
	}
	if upd.CorrectAnswer != nil {
		q.CorrectAnswer = model.StringList(*upd.CorrectAnswer)
	}
	if upd.Points != nil {
		q.Points = *upd.Points
	}
	if upd.Explanation != nil {
		q.Explanation = *upd.Explanation
	}
	return nil
}

// DeleteQuestion removes the question at index and renumbers the remainder
// into a dense 0-based sequence.
func DeleteQuestion(quiz *model.Quiz, index int) error {
	if index < 0 || index >= len(quiz.Questions) {
		return util.ErrIndexOutOfRange
	}
	quiz.Questions = append(quiz.Questions[:index], quiz.Questions[index+1:]...)
	renumber(quiz)
	return nil
}

// DuplicateQuestion appends a deep copy with a new identity at the end of
// the sequence, content unchanged.
func DuplicateQuestion(quiz *model.Quiz, index int) (*model.Question, error) {
	if index < 0 || index >= len(quiz.Questions) {
		return nil, util.ErrIndexOutOfRange
	}
	dup := quiz.Questions[index].Clone()
	dup.QuizID = quiz.ID
	dup.Position = len(quiz.Questions)
	quiz.Questions = append(quiz.Questions, dup)
	return &quiz.Questions[len(quiz.Questions)-1], nil
}

// ReorderQuestion moves one question from one index to another and
// renumbers all positions.
func ReorderQuestion(quiz *model.Quiz, from, to int) error {
	n := len(quiz.Questions)
	if from < 0 || from >= n || to < 0 || to >= n {
		return util.ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	q := quiz.Questions[from]
	rest := append(quiz.Questions[:from:from], quiz.Questions[from+1:]...)
	quiz.Questions = append(rest[:to:to], append([]model.Question{q}, rest[to:]...)...)
	renumber(quiz)
	return nil
}

// MergeParsedQuestions runs the paste parser and appends the result after
// the existing questions.
func MergeParsedQuestions(quiz *model.Quiz, text string) []model.Question {
	parsed := ParsePastedQuestions(text, len(quiz.Questions))
	for i := range parsed {
		parsed[i].QuizID = quiz.ID
	}
	quiz.Questions = append(quiz.Questions, parsed...)
	return parsed
}

func renumber(quiz *model.Quiz) {
	for i := range quiz.Questions {
		quiz.Questions[i].Position = i
	}
}

// ---- persisted wrappers over the pure actions ----

func (s *QuizService) AddQuestion(quizID string, qType model.QuestionType) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		_, err := AddQuestion(quiz, qType)
		return err
	})
}

func (s *QuizService) UpdateQuestion(quizID string, index int, upd QuestionUpdate) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		return UpdateQuestion(quiz, index, upd)
	})
}

func (s *QuizService) DeleteQuestion(quizID string, index int) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		return DeleteQuestion(quiz, index)
	})
}

func (s *QuizService) DuplicateQuestion(quizID string, index int) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		_, err := DuplicateQuestion(quiz, index)
		return err
	})
}

func (s *QuizService) ReorderQuestion(quizID string, from, to int) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		return ReorderQuestion(quiz, from, to)
	})
}

func (s *QuizService) MergeParsedQuestions(quizID, text string) (*model.Quiz, error) {
	return s.mutate(quizID, func(quiz *model.Quiz) error {
		MergeParsedQuestions(quiz, text)
		return nil
	})
}

func (s *QuizService) mutate(quizID string, action func(*model.Quiz) error) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if err := action(quiz); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}
