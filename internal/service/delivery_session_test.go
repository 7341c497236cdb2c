package service

import (
	"sync"
	"testing"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func timedQuiz(minutes int) *model.Quiz {
	return &model.Quiz{
		UUIDBase:         model.UUIDBase{ID: "quiz-1"},
		CourseID:         "course-1",
		Title:            "Timed quiz",
		Description:      "desc",
		PassingScore:     70,
		MaxAttempts:      3,
		TimeLimitMinutes: minutes,
		IsActive:         true,
		Questions: []model.Question{
			mcQuestion("q1", "4", 1, "3", "4"),
			tfQuestion("q2", "True", 1),
		},
	}
}

func TestNewDeliverySessionInitialState(t *testing.T) {
	clock := newFakeClock()
	session := NewDeliverySession(timedQuiz(1), "user-1", clock)

	assert.Equal(t, SessionInProgress, session.State())
	view := session.View()
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 60, view.RemainingSeconds)
	assert.Empty(t, view.Answers)
	assert.Empty(t, view.Flagged)
	assert.Equal(t, clock.Now(), view.StartedAt)
}

func TestUnlimitedSessionNeverTimesOut(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	view := session.View()
	assert.Equal(t, -1, view.RemainingSeconds)
	for i := 0; i < 1000; i++ {
		assert.False(t, session.Tick())
	}
	assert.Equal(t, SessionInProgress, session.State())
}

func TestAnswerLastWriteWins(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	require.NoError(t, session.Answer("q1", []string{"3"}))
	require.NoError(t, session.Answer("q1", []string{"4"}))

	answers := session.AnswersSnapshot()
	assert.Equal(t, model.StringList{"4"}, answers["q1"])

	err := session.Answer("ghost", []string{"4"})
	assert.ErrorIs(t, err, util.ErrUnknownQuestion)
}

func TestNavigationBounds(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	require.NoError(t, session.GoTo(1))
	assert.Equal(t, 1, session.View().Index)
	require.NoError(t, session.GoTo(0))

	assert.ErrorIs(t, session.GoTo(2), util.ErrIndexOutOfRange)
	assert.ErrorIs(t, session.GoTo(-1), util.ErrIndexOutOfRange)
}

func TestToggleFlagOnCurrentQuestion(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	require.NoError(t, session.ToggleFlag())
	assert.Equal(t, []int{0}, session.View().Flagged)

	require.NoError(t, session.GoTo(1))
	require.NoError(t, session.ToggleFlag())
	assert.Equal(t, []int{0, 1}, session.View().Flagged)

	// toggling again clears
	require.NoError(t, session.ToggleFlag())
	assert.Equal(t, []int{0}, session.View().Flagged)
}

func TestTickCountsDownToForcedSubmission(t *testing.T) {
	session := NewDeliverySession(timedQuiz(1), "user-1", newFakeClock())

	fired := false
	for i := 0; i < 60; i++ {
		if session.Tick() {
			fired = true
		}
	}
	assert.True(t, fired)
	assert.Equal(t, SessionSubmitting, session.State())
	assert.True(t, session.View().TimedOut)

	// fires exactly once
	assert.False(t, session.Tick())
}

func TestSessionClosedToEventsAfterSubmitting(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())
	require.NoError(t, session.BeginSubmit())

	assert.ErrorIs(t, session.Answer("q1", []string{"4"}), util.ErrSessionNotOpen)
	assert.ErrorIs(t, session.GoTo(1), util.ErrSessionNotOpen)
	assert.ErrorIs(t, session.ToggleFlag(), util.ErrSessionNotOpen)
}

func TestBeginSubmitTransitions(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	require.NoError(t, session.BeginSubmit())
	// the transition belongs to the first claimant only
	assert.ErrorIs(t, session.BeginSubmit(), util.ErrSessionSubmitted)

	session.complete()
	assert.ErrorIs(t, session.BeginSubmit(), util.ErrSessionSubmitted)
}

func TestCountdownClaimExcludesManualSubmit(t *testing.T) {
	session := NewDeliverySession(timedQuiz(1), "user-1", newFakeClock())

	for i := 0; i < 60; i++ {
		session.Tick()
	}
	require.Equal(t, SessionSubmitting, session.State())
	assert.ErrorIs(t, session.BeginSubmit(), util.ErrSessionSubmitted)

	// a rollback releases the claim so a manual submit can retry
	session.Rollback()
	require.NoError(t, session.BeginSubmit())
}

func TestRollbackPreservesAnswersAndGrantsGrace(t *testing.T) {
	session := NewDeliverySession(timedQuiz(1), "user-1", newFakeClock())
	require.NoError(t, session.Answer("q1", []string{"4"}))

	for i := 0; i < 60; i++ {
		session.Tick()
	}
	require.Equal(t, SessionSubmitting, session.State())

	session.Rollback()

	assert.Equal(t, SessionInProgress, session.State())
	assert.Equal(t, model.StringList{"4"}, session.AnswersSnapshot()["q1"])
	// countdown is not re-armed after expiry; the learner keeps a window to retry
	assert.Equal(t, -1, session.View().RemainingSeconds)
	assert.False(t, session.Tick())
}

func TestRecoverAnswersOnlyIntoFreshSession(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	session.RecoverAnswers(model.AnswerSet{
		"q1":    {"4"},
		"ghost": {"x"}, // unknown ids are dropped
	})
	answers := session.AnswersSnapshot()
	assert.Equal(t, model.StringList{"4"}, answers["q1"])
	assert.NotContains(t, answers, "ghost")

	// a second recovery never clobbers live answers
	require.NoError(t, session.Answer("q2", []string{"True"}))
	session.RecoverAnswers(model.AnswerSet{"q1": {"3"}})
	assert.Equal(t, model.StringList{"4"}, session.AnswersSnapshot()["q1"])
}

func TestAbandonOnlyFromInProgress(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())
	session.Abandon()
	assert.Equal(t, SessionAbandoned, session.State())

	done := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())
	done.complete()
	done.Abandon()
	assert.Equal(t, SessionCompleted, done.State())
}

func TestViewHidesCorrectAnswers(t *testing.T) {
	session := NewDeliverySession(timedQuiz(0), "user-1", newFakeClock())

	view := session.View()
	require.Len(t, view.Questions, 2)
	for _, q := range view.Questions {
		assert.NotEmpty(t, q.Prompt)
		assert.NotEmpty(t, q.Options)
	}
}

func TestDeliveryOrderRandomizationKeepsContent(t *testing.T) {
	quiz := timedQuiz(0)
	quiz.RandomizeQuestions = true
	quiz.RandomizeAnswers = true

	questions := deliveryOrder(quiz)
	require.Len(t, questions, 2)

	seen := map[string]bool{}
	for _, q := range questions {
		seen[q.ID] = true
		if q.Type == model.TrueFalse {
			// true_false options are never shuffled
			assert.Equal(t, model.StringList{"True", "False"}, q.Options)
		} else {
			assert.ElementsMatch(t, []string{"3", "4"}, q.Options)
		}
	}
	assert.True(t, seen["q1"] && seen["q2"])

	// the quiz's own ordering is untouched
	assert.Equal(t, "q1", quiz.Questions[0].ID)
}
