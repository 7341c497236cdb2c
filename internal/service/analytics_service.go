package service

import (
	"sort"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/repository"
)

type AnalyticsService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
}

func NewAnalyticsService(quizRepo *repository.QuizRepository, attemptRepo *repository.AttemptRepository) *AnalyticsService {
	return &AnalyticsService{QuizRepo: quizRepo, AttemptRepo: attemptRepo}
}

// QuestionStat is the per-question difficulty signal: the fraction of
// attempts that answered it correctly, ascending order surfaces the weakest
// content first.
type QuestionStat struct {
	QuestionID      string  `json:"questionId"`
	Prompt          string  `json:"prompt"`
	Position        int     `json:"position"`
	CorrectCount    int     `json:"correctCount"`
	AttemptCount    int     `json:"attemptCount"`
	CorrectFraction float64 `json:"correctFraction"`
}

// QuizAnalytics summarizes the attempt population of one quiz. HasData is
// false when there are no attempts; callers render "no data" instead of
// undefined statistics.
type QuizAnalytics struct {
	QuizID                  string         `json:"quizId"`
	HasData                 bool           `json:"hasData"`
	TotalAttempts           int            `json:"totalAttempts"`
	AverageScore            float64        `json:"averageScore"`
	PassRate                float64        `json:"passRate"` // percent
	AverageTimeSpentSeconds float64        `json:"averageTimeSpentSeconds"`
	ProblemQuestions        []QuestionStat `json:"problemQuestions"`
}

func (s *AnalyticsService) QuizAnalytics(quizID string) (*QuizAnalytics, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.ListAttempts(quizID, "")
	if err != nil {
		return nil, err
	}
	return AggregateAttempts(quiz, attempts), nil
}

// AggregateAttempts is the pure aggregation pass over one quiz's attempts.
func AggregateAttempts(quiz *model.Quiz, attempts []model.Attempt) *QuizAnalytics {
	analytics := &QuizAnalytics{QuizID: quiz.ID}
	if len(attempts) == 0 {
		return analytics
	}
	analytics.HasData = true
	analytics.TotalAttempts = len(attempts)

	var scoreSum float64
	passedCount := 0
	var timeSum float64
	timedCount := 0

	correct := make(map[string]int, len(quiz.Questions))
	for _, attempt := range attempts {
		scoreSum += attempt.Score
		if attempt.Passed {
			passedCount++
		}
		// Attempts missing timing data are silently excluded from the mean.
		if attempt.TimeSpentSeconds > 0 {
			timeSum += float64(attempt.TimeSpentSeconds)
			timedCount++
		}

		for _, q := range quiz.Questions {
			if submitted, ok := attempt.Answers[q.ID]; ok && answerMatches(q, submitted) {
				correct[q.ID]++
			}
		}
	}

	analytics.AverageScore = scoreSum / float64(len(attempts))
	analytics.PassRate = 100 * float64(passedCount) / float64(len(attempts))
	if timedCount > 0 {
		analytics.AverageTimeSpentSeconds = timeSum / float64(timedCount)
	}

	stats := make([]QuestionStat, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		stat := QuestionStat{
			QuestionID:   q.ID,
			Prompt:       q.Prompt,
			Position:     q.Position,
			CorrectCount: correct[q.ID],
			AttemptCount: len(attempts),
		}
		stat.CorrectFraction = float64(stat.CorrectCount) / float64(stat.AttemptCount)
		stats = append(stats, stat)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CorrectFraction < stats[j].CorrectFraction
	})
	analytics.ProblemQuestions = stats

	return analytics
}

// ListAttempts exposes the attempt history for one quiz, optionally scoped
// to one learner.
func (s *AnalyticsService) ListAttempts(quizID, userID string) ([]model.Attempt, error) {
	return s.AttemptRepo.ListAttempts(quizID, userID)
}
