package repository

import (
	"errors"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// SaveAttempt writes a finalized attempt. Attempts are write-once; there is
// no update path.
func (r *AttemptRepository) SaveAttempt(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListAttempts returns attempts for one quiz, newest first, optionally
// filtered to one learner.
func (r *AttemptRepository) ListAttempts(quizID, userID string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	query := r.DB.Where("quiz_id = ?", quizID)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Order("completed_at desc").Find(&attempts).Error
	return attempts, err
}

// CountCompleted reports how many attempts a learner has completed for one
// quiz; the next attempt number continues from here.
func (r *AttemptRepository) CountCompleted(quizID, userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&count).Error
	return count, err
}
