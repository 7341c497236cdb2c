package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAttemptStore struct {
	mu       sync.Mutex
	attempts []model.Attempt
	failSave bool
}

func (s *memAttemptStore) SaveAttempt(attempt *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("store unavailable")
	}
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *memAttemptStore) ListAttempts(quizID, userID string) ([]model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.QuizID == quizID && (userID == "" || a.UserID == userID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAttemptStore) CountCompleted(quizID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			count++
		}
	}
	return count, nil
}

type memRecoveryStore struct {
	mu     sync.Mutex
	drafts map[string]model.AnswerSet
}

func newMemRecoveryStore() *memRecoveryStore {
	return &memRecoveryStore{drafts: make(map[string]model.AnswerSet)}
}

func (s *memRecoveryStore) SaveDraftAnswers(ctx context.Context, key string, answers model.AnswerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = answers.Clone()
	return nil
}

func (s *memRecoveryStore) LoadDraftAnswers(ctx context.Context, key string) (model.AnswerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[key]
	if !ok {
		return nil, nil
	}
	return draft.Clone(), nil
}

func (s *memRecoveryStore) DeleteDraftAnswers(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}

func newTestDelivery() (*DeliveryService, *memAttemptStore, *memRecoveryStore, *fakeClock) {
	attempts := &memAttemptStore{}
	recovery := newMemRecoveryStore()
	clock := newFakeClock()
	return NewDeliveryService(attempts, recovery, clock), attempts, recovery, clock
}

func TestStartRequiresActiveQuiz(t *testing.T) {
	svc, _, _, _ := newTestDelivery()

	quiz := timedQuiz(0)
	quiz.IsActive = false

	_, err := svc.Start(context.Background(), quiz, "user-1")
	assert.ErrorIs(t, err, util.ErrQuizNotActive)
}

func TestStartEnforcesMaxAttempts(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	quiz := timedQuiz(0)
	quiz.MaxAttempts = 1
	attempts.attempts = []model.Attempt{{QuizID: quiz.ID, UserID: "user-1"}}

	_, err := svc.Start(context.Background(), quiz, "user-1")
	assert.ErrorIs(t, err, util.ErrMaxAttemptsUsed)

	// a different learner is unaffected
	_, err = svc.Start(context.Background(), quiz, "user-2")
	assert.NoError(t, err)
}

func TestStartRecoversDraftAnswers(t *testing.T) {
	svc, _, recovery, _ := newTestDelivery()

	quiz := timedQuiz(0)
	recovery.drafts[quiz.ID+":user-1"] = model.AnswerSet{"q1": {"4"}}

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)

	assert.Equal(t, model.StringList{"4"}, session.AnswersSnapshot()["q1"])
}

func TestSubmitPersistsAttemptAndCleansUp(t *testing.T) {
	svc, attempts, recovery, _ := newTestDelivery()
	quiz := timedQuiz(0)

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))
	require.NoError(t, session.Answer("q2", []string{"True"}))
	recovery.drafts[quiz.ID+":user-1"] = model.AnswerSet{"q1": {"4"}}

	attempt, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, attempt.Score)
	assert.True(t, attempt.Passed)
	assert.Equal(t, 1, attempt.AttemptNumber)
	assert.False(t, attempt.TimedOut)
	require.Len(t, attempts.attempts, 1)

	// draft is gone, session is gone
	assert.NotContains(t, recovery.drafts, quiz.ID+":user-1")
	_, err = svc.Session(session.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Equal(t, SessionCompleted, session.State())
}

func TestSubmitIncompleteAnswersAllowed(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(0), "user-1")
	require.NoError(t, err)

	attempt, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, attempt.Score)
	assert.False(t, attempt.Passed)
	require.Len(t, attempts.attempts, 1)
}

func TestSubmitFailureRollsBackAndAllowsRetry(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(0), "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))

	attempts.failSave = true
	_, err = svc.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, util.ErrSubmissionFailed)

	// answers intact, session back in progress and still registered
	assert.Equal(t, SessionInProgress, session.State())
	assert.Equal(t, model.StringList{"4"}, session.AnswersSnapshot()["q1"])
	_, err = svc.Session(session.ID)
	require.NoError(t, err)

	attempts.failSave = false
	attempt, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"4"}, attempt.Answers["q1"])
}

func TestAttemptNumbersIncrement(t *testing.T) {
	svc, _, _, _ := newTestDelivery()
	quiz := timedQuiz(0)

	for want := 1; want <= 3; want++ {
		session, err := svc.Start(context.Background(), quiz, "user-1")
		require.NoError(t, err)
		attempt, err := svc.Submit(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, want, attempt.AttemptNumber)
	}
}

func TestTimeoutForcesSubmission(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(1), "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))

	for i := 0; i < 60; i++ {
		svc.tickAll()
	}

	require.Len(t, attempts.attempts, 1)
	saved := attempts.attempts[0]
	assert.True(t, saved.TimedOut)
	assert.Equal(t, 50.0, saved.Score)

	_, err = svc.Session(session.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestTimeoutAndManualSubmitPersistOneAttempt(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(1), "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))

	// countdown expires and claims the submission
	claimed := false
	for i := 0; i < 60; i++ {
		if session.Tick() {
			claimed = true
		}
	}
	require.True(t, claimed)

	// a manual submit landing before the forced finalization is refused
	_, err = svc.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, util.ErrSessionSubmitted)

	attempt, err := svc.finalize(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, attempt.TimedOut)

	require.Len(t, attempts.attempts, 1)
	assert.Equal(t, 1, attempts.attempts[0].AttemptNumber)
}

func TestAutosaveWritesDirtySessionsOnly(t *testing.T) {
	svc, _, recovery, _ := newTestDelivery()
	quiz := timedQuiz(0)

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)

	// nothing answered yet, nothing to save
	svc.autosaveAll()
	assert.Empty(t, recovery.drafts)

	require.NoError(t, session.Answer("q1", []string{"4"}))
	svc.autosaveAll()
	assert.Equal(t, model.StringList{"4"}, recovery.drafts[quiz.ID+":user-1"]["q1"])

	// unchanged since last save: skipped
	delete(recovery.drafts, quiz.ID+":user-1")
	svc.autosaveAll()
	assert.Empty(t, recovery.drafts)
}

func TestReapIdleAbandonsStaleSessions(t *testing.T) {
	svc, _, _, clock := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(0), "user-1")
	require.NoError(t, err)

	clock.Advance(svc.idleLimit / 2)
	svc.reapIdle()
	_, err = svc.Session(session.ID)
	require.NoError(t, err)

	clock.Advance(svc.idleLimit)
	svc.reapIdle()
	_, err = svc.Session(session.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Equal(t, SessionAbandoned, session.State())
}

func TestCertificateEventOnPassedCEQuiz(t *testing.T) {
	svc, _, _, _ := newTestDelivery()

	quiz := timedQuiz(0)
	quiz.CEValidation = true

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))
	require.NoError(t, session.Answer("q2", []string{"True"}))

	attempt, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, attempt.Passed)

	select {
	case req := <-svc.CertificateRequests():
		assert.Equal(t, "user-1", req.UserID)
		assert.Equal(t, quiz.CourseID, req.CourseID)
		assert.Equal(t, attempt.ID, req.AttemptID)
	default:
		t.Fatal("expected a certificate request")
	}
}

func TestSubmitAfterStopStillPersists(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	quiz := timedQuiz(0)
	quiz.CEValidation = true

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)
	require.NoError(t, session.Answer("q1", []string{"4"}))
	require.NoError(t, session.Answer("q2", []string{"True"}))

	// an in-flight submission racing shutdown must still complete cleanly
	svc.Stop()

	attempt, err := svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, attempt.Passed)
	require.Len(t, attempts.attempts, 1)

	select {
	case req := <-svc.CertificateRequests():
		assert.Equal(t, attempt.ID, req.AttemptID)
	default:
		t.Fatal("expected a certificate request")
	}
}

func TestRunClosesCertificateQueueAfterStop(t *testing.T) {
	svc, _, _, _ := newTestDelivery()

	done := make(chan struct{})
	go func() {
		svc.Run()
		close(done)
	}()

	svc.Stop()
	<-done

	_, open := <-svc.CertificateRequests()
	assert.False(t, open)
}

func TestNoCertificateEventOnFailedAttempt(t *testing.T) {
	svc, _, _, _ := newTestDelivery()

	quiz := timedQuiz(0)
	quiz.CEValidation = true

	session, err := svc.Start(context.Background(), quiz, "user-1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	select {
	case <-svc.CertificateRequests():
		t.Fatal("no certificate request expected for a failed attempt")
	default:
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	svc, attempts, _, _ := newTestDelivery()

	session, err := svc.Start(context.Background(), timedQuiz(0), "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(session.ID))
	assert.Empty(t, attempts.attempts)
	_, err = svc.Session(session.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}
