package service

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"
)

// SessionState enumerates the delivery session lifecycle.
type SessionState string

const (
	SessionInProgress SessionState = "in_progress"
	SessionSubmitting SessionState = "submitting"
	SessionCompleted  SessionState = "completed"
	SessionAbandoned  SessionState = "abandoned"
)

// Clock abstracts wall time so the timeout path can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// DeliverySession is the in-progress state of one attempt: current question
// index, the working answers map, the flagged set and the remaining time.
// It is ephemeral, owned by the DeliveryService for the duration of one
// attempt and discarded on completion or abandonment.
//
// Transitions are synchronous and sequential; the internal mutex only guards
// against the HTTP handler and the timer goroutine arriving together.
type DeliverySession struct {
	ID     string
	QuizID string
	UserID string

	mu        sync.Mutex
	quiz      *model.Quiz
	questions []model.Question // delivery order, possibly randomized
	state     SessionState
	index     int
	answers   model.AnswerSet
	flagged   map[int]bool
	remaining int // seconds; -1 when unlimited
	startedAt time.Time
	lastSeen  time.Time
	timedOut  bool
	dirty     bool
	clock     Clock
}

// NewDeliverySession starts a session at question 0 with empty answers and
// flags. When the quiz sets a time limit the countdown starts immediately;
// a limit of 0 means unlimited.
func NewDeliverySession(quiz *model.Quiz, userID string, clock Clock) *DeliverySession {
	if clock == nil {
		clock = SystemClock
	}
	now := clock.Now()

	remaining := -1
	if quiz.TimeLimitMinutes > 0 {
		remaining = quiz.TimeLimitMinutes * 60
	}

	s := &DeliverySession{
		ID:        model.GenerateUUID(),
		QuizID:    quiz.ID,
		UserID:    userID,
		quiz:      quiz,
		questions: deliveryOrder(quiz),
		state:     SessionInProgress,
		answers:   make(model.AnswerSet),
		flagged:   make(map[int]bool),
		remaining: remaining,
		startedAt: now,
		lastSeen:  now,
		clock:     clock,
	}
	return s
}

// deliveryOrder snapshots the questions in presentation order, applying the
// quiz's randomization settings. Shuffling options is safe because answers
// are matched by value, not by position.
func deliveryOrder(quiz *model.Quiz) []model.Question {
	questions := make([]model.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)

	if quiz.RandomizeQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if quiz.RandomizeAnswers {
		for i := range questions {
			if questions[i].Type == model.TrueFalse {
				continue
			}
			opts := append(model.StringList{}, questions[i].Options...)
			rand.Shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
			})
			questions[i].Options = opts
		}
	}
	return questions
}

// RecoverAnswers seeds the working answers map from an autosaved draft.
// Only valid while no answers have been captured yet.
func (s *DeliverySession) RecoverAnswers(draft model.AnswerSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress || len(s.answers) > 0 {
		return
	}
	for questionID, values := range draft {
		if _, ok := s.quiz.QuestionByID(questionID); ok {
			s.answers[questionID] = append(model.StringList{}, values...)
		}
	}
}

// Answer records the submitted value for a question. The latest value for a
// given question always wins; the current index does not advance.
func (s *DeliverySession) Answer(questionID string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return util.ErrSessionNotOpen
	}
	if _, ok := s.quiz.QuestionByID(questionID); !ok {
		return util.ErrUnknownQuestion
	}
	s.answers[questionID] = append(model.StringList{}, values...)
	s.dirty = true
	s.lastSeen = s.clock.Now()
	return nil
}

// ToggleFlag toggles the review flag on the current question. Flags are
// advisory only and never affect scoring or submission eligibility.
func (s *DeliverySession) ToggleFlag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return util.ErrSessionNotOpen
	}
	if s.flagged[s.index] {
		delete(s.flagged, s.index)
	} else {
		s.flagged[s.index] = true
	}
	s.lastSeen = s.clock.Now()
	return nil
}

// GoTo jumps to any valid question index; the learner may revisit and change
// earlier answers at any time before submission.
func (s *DeliverySession) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return util.ErrSessionNotOpen
	}
	if index < 0 || index >= len(s.questions) {
		return util.ErrIndexOutOfRange
	}
	s.index = index
	s.lastSeen = s.clock.Now()
	return nil
}

// Tick advances the countdown by one second. When the limit is exhausted the
// session moves to Submitting with whatever answers were captured; this
// transition is automatic and non-cancellable. Returns true exactly once,
// when the timeout fires.
func (s *DeliverySession) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress || s.remaining < 0 {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.state = SessionSubmitting
		s.timedOut = true
		return true
	}
	return false
}

// BeginSubmit claims a manual submission. The Submitting transition is
// handed to exactly one caller: a session already claimed by the countdown
// or by a concurrent submit is refused, so at most one finalization runs and
// at most one attempt is persisted. The confirmation step (showing
// answered/unanswered/flagged counts) is a UI courtesy, not enforced here.
func (s *DeliverySession) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return util.ErrSessionSubmitted
	}
	s.state = SessionSubmitting
	return nil
}

// Rollback reverts a failed submission to InProgress, preserving all
// captured answers. The countdown is not re-armed once it reached zero, so
// the learner keeps a retry window after a timeout-forced submission fails.
func (s *DeliverySession) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionSubmitting {
		s.state = SessionInProgress
		if s.remaining == 0 {
			s.remaining = -1
		}
	}
}

func (s *DeliverySession) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionCompleted
}

// Abandon discards the session without submission; nothing beyond the last
// autosaved draft survives.
func (s *DeliverySession) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionInProgress {
		s.state = SessionAbandoned
	}
}

func (s *DeliverySession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AnswersSnapshot returns an independent copy of the working answers.
func (s *DeliverySession) AnswersSnapshot() model.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// TakeDirty reports whether answers changed since the last autosave and
// resets the flag.
func (s *DeliverySession) TakeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

// SessionView is the UI-facing snapshot of a session.
type SessionView struct {
	SessionID        string            `json:"sessionId"`
	QuizID           string            `json:"quizId"`
	State            SessionState      `json:"state"`
	Index            int               `json:"index"`
	QuestionCount    int               `json:"questionCount"`
	Questions        []SessionQuestion `json:"questions"`
	Answers          model.AnswerSet   `json:"answers"`
	Flagged          []int             `json:"flagged"`
	AnsweredCount    int               `json:"answeredCount"`
	RemainingSeconds int               `json:"remainingSeconds"` // -1 when unlimited
	TimedOut         bool              `json:"timedOut"`
	StartedAt        time.Time         `json:"startedAt"`
}

// SessionQuestion is a question as presented to the learner: no correct
// answer, no explanation until the attempt is completed.
type SessionQuestion struct {
	ID      string             `json:"id"`
	Type    model.QuestionType `json:"type"`
	Prompt  string             `json:"prompt"`
	Options model.StringList   `json:"options"`
	Points  int                `json:"points"`
}

// View renders the learner-facing snapshot.
func (s *DeliverySession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]SessionQuestion, len(s.questions))
	for i, q := range s.questions {
		questions[i] = SessionQuestion{
			ID:      q.ID,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: q.Options,
			Points:  q.Points,
		}
	}

	flagged := make([]int, 0, len(s.flagged))
	for idx := range s.flagged {
		flagged = append(flagged, idx)
	}
	sort.Ints(flagged)

	return SessionView{
		SessionID:        s.ID,
		QuizID:           s.QuizID,
		State:            s.state,
		Index:            s.index,
		QuestionCount:    len(s.questions),
		Questions:        questions,
		Answers:          s.answers.Clone(),
		Flagged:          flagged,
		AnsweredCount:    len(s.answers),
		RemainingSeconds: s.remaining,
		TimedOut:         s.timedOut,
		StartedAt:        s.startedAt,
	}
}

func (s *DeliverySession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
