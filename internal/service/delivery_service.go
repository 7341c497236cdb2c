package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/logger"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/monitoring"

	"go.uber.org/zap"
)

// AttemptStore is the external quiz/attempt store contract. Attempts are
// write-once; the store owns authoritative attempt-number consistency.
type AttemptStore interface {
	SaveAttempt(attempt *model.Attempt) error
	ListAttempts(quizID, userID string) ([]model.Attempt, error)
	CountCompleted(quizID, userID string) (int64, error)
}

// RecoveryStore is the autosave/recovery store contract. Drafts are
// advisory crash-recovery copies, never promoted to attempts automatically.
type RecoveryStore interface {
	SaveDraftAnswers(ctx context.Context, sessionKey string, answers model.AnswerSet) error
	LoadDraftAnswers(ctx context.Context, sessionKey string) (model.AnswerSet, error)
	DeleteDraftAnswers(ctx context.Context, sessionKey string) error
}

// CertificateRequest is the outbound issuance event emitted when a passed
// attempt on a CE-validated quiz completes.
type CertificateRequest struct {
	UserID    string `json:"userId"`
	CourseID  string `json:"courseId"`
	QuizID    string `json:"quizId"`
	AttemptID string `json:"attemptId"`
}

// DeliveryService runs timed delivery sessions: one per (learner, quiz) at a
// time, driven by discrete events plus a one-second timer tick. Submission
// scores the in-memory answers, persists the attempt and, for passed CE
// quizzes, emits a certificate event; issuance failures never invalidate the
// attempt.
type DeliveryService struct {
	attempts AttemptStore
	recovery RecoveryStore
	clock    Clock

	certCh chan CertificateRequest

	mu       sync.RWMutex
	sessions map[string]*DeliverySession

	autosaveEvery time.Duration
	idleLimit     time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

func NewDeliveryService(attempts AttemptStore, recovery RecoveryStore, clock Clock) *DeliveryService {
	if clock == nil {
		clock = SystemClock
	}
	return &DeliveryService{
		attempts:      attempts,
		recovery:      recovery,
		clock:         clock,
		certCh:        make(chan CertificateRequest, 64),
		sessions:      make(map[string]*DeliverySession),
		autosaveEvery: 15 * time.Second,
		idleLimit:     2 * time.Hour,
		stopCh:        make(chan struct{}),
	}
}

// SetIntervals overrides the autosave and idle-reap intervals. Call before Run.
func (s *DeliveryService) SetIntervals(autosave, idleLimit time.Duration) {
	if autosave > 0 {
		s.autosaveEvery = autosave
	}
	if idleLimit > 0 {
		s.idleLimit = idleLimit
	}
}

// CertificateRequests exposes the outbound issuance events for a separate
// consumer; completion never blocks on it.
func (s *DeliveryService) CertificateRequests() <-chan CertificateRequest {
	return s.certCh
}

// Start opens a delivery session for an active quiz. A previously autosaved
// draft for the same (learner, quiz) is recovered into the working answers.
// The maxAttempts check here is advisory; the store stays authoritative.
func (s *DeliveryService) Start(ctx context.Context, quiz *model.Quiz, userID string) (*DeliverySession, error) {
	if !quiz.IsActive {
		return nil, util.ErrQuizNotActive
	}
	if errs := quiz.ValidateForActivation(); errs.HasErrors() {
		return nil, errs
	}

	completed, err := s.attempts.CountCompleted(quiz.ID, userID)
	if err != nil {
		return nil, err
	}
	if quiz.MaxAttempts > 0 && completed >= int64(quiz.MaxAttempts) {
		return nil, util.ErrMaxAttemptsUsed
	}

	session := NewDeliverySession(quiz, userID, s.clock)

	if draft, err := s.recovery.LoadDraftAnswers(ctx, draftKey(quiz.ID, userID)); err != nil {
		logger.Log.Warn("draft recovery failed", zap.String("quizId", quiz.ID), zap.Error(err))
	} else if draft != nil {
		session.RecoverAnswers(draft)
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

func (s *DeliveryService) Session(sessionID string) (*DeliverySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// Submit finalizes a session manually. Incomplete answer sets are allowed;
// unanswered questions simply score as incorrect.
func (s *DeliveryService) Submit(ctx context.Context, sessionID string) (*model.Attempt, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.BeginSubmit(); err != nil {
		return nil, err
	}
	return s.finalize(ctx, session)
}

// Abandon discards an in-progress session without submission.
func (s *DeliveryService) Abandon(sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	session.Abandon()
	s.drop(session.ID)
	return nil
}

// finalize runs Submitting → Completed: score, assign the next attempt
// number, persist. Any failure reverts to InProgress with all state intact
// so the learner can retry without losing answers.
func (s *DeliveryService) finalize(ctx context.Context, session *DeliverySession) (*model.Attempt, error) {
	answers := session.AnswersSnapshot()

	result, err := ScoreQuiz(session.quiz, answers)
	if err != nil {
		session.Rollback()
		return nil, err
	}

	completed, err := s.attempts.CountCompleted(session.QuizID, session.UserID)
	if err != nil {
		session.Rollback()
		return nil, fmt.Errorf("%w: %v", util.ErrSubmissionFailed, err)
	}

	now := s.clock.Now()
	view := session.View()
	attempt := &model.Attempt{
		UUIDBase:         model.UUIDBase{ID: model.GenerateUUID()},
		QuizID:           session.QuizID,
		UserID:           session.UserID,
		Answers:          answers,
		Score:            result.Score,
		Passed:           result.Passed,
		StartedAt:        view.StartedAt,
		CompletedAt:      now,
		TimeSpentSeconds: int(now.Sub(view.StartedAt).Seconds()),
		AttemptNumber:    int(completed) + 1,
		TimedOut:         view.TimedOut,
	}

	if err := s.attempts.SaveAttempt(attempt); err != nil {
		session.Rollback()
		return nil, fmt.Errorf("%w: %v", util.ErrSubmissionFailed, err)
	}

	session.complete()
	s.drop(session.ID)
	monitoring.QuizSubmissions.WithLabelValues(submissionKind(view.TimedOut)).Inc()

	if err := s.recovery.DeleteDraftAnswers(ctx, draftKey(session.QuizID, session.UserID)); err != nil {
		logger.Log.Warn("draft cleanup failed", zap.String("quizId", session.QuizID), zap.Error(err))
	}

	if result.Passed && session.quiz.CEValidation {
		req := CertificateRequest{
			UserID:    session.UserID,
			CourseID:  session.quiz.CourseID,
			QuizID:    session.QuizID,
			AttemptID: attempt.ID,
		}
		select {
		case s.certCh <- req:
		default:
			logger.Log.Warn("certificate queue full, dropping request",
				zap.String("attemptId", attempt.ID))
		}
	}

	return attempt, nil
}

// Run drives the one-second countdown tick, the autosave interval and the
// idle-session reaper until Stop is called. The certificate queue is closed
// here on the way out, once no tick-driven finalization can run anymore;
// callers must stop serving submissions before calling Stop.
func (s *DeliveryService) Run() {
	tick := time.NewTicker(time.Second)
	autosave := time.NewTicker(s.autosaveEvery)
	reap := time.NewTicker(time.Minute)
	defer close(s.certCh)
	defer tick.Stop()
	defer autosave.Stop()
	defer reap.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-tick.C:
			s.tickAll()
		case <-autosave.C:
			s.autosaveAll()
		case <-reap.C:
			s.reapIdle()
		}
	}
}

func (s *DeliveryService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// tickAll advances every timed session and force-submits the ones whose
// countdown just expired.
func (s *DeliveryService) tickAll() {
	for _, session := range s.snapshot() {
		if !session.Tick() {
			continue
		}
		monitoring.QuizTimeouts.Inc()
		if _, err := s.finalize(context.Background(), session); err != nil {
			logger.Log.Error("timeout-forced submission failed",
				zap.String("sessionId", session.ID), zap.Error(err))
		}
	}
}

func (s *DeliveryService) autosaveAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, session := range s.snapshot() {
		if session.State() != SessionInProgress || !session.TakeDirty() {
			continue
		}
		key := draftKey(session.QuizID, session.UserID)
		if err := s.recovery.SaveDraftAnswers(ctx, key, session.AnswersSnapshot()); err != nil {
			logger.Log.Warn("autosave failed", zap.String("sessionId", session.ID), zap.Error(err))
		}
	}
}

func (s *DeliveryService) reapIdle() {
	cutoff := s.clock.Now().Add(-s.idleLimit)
	for _, session := range s.snapshot() {
		if session.State() == SessionInProgress && session.idleSince().Before(cutoff) {
			session.Abandon()
			s.drop(session.ID)
			logger.Log.Info("abandoned idle session", zap.String("sessionId", session.ID))
		}
	}
}

func (s *DeliveryService) snapshot() []*DeliverySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*DeliverySession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *DeliveryService) drop(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func draftKey(quizID, userID string) string {
	return quizID + ":" + userID
}

func submissionKind(timedOut bool) string {
	if timedOut {
		return "timeout"
	}
	return "manual"
}
