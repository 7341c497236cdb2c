package repository

import (
	"errors"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&quiz, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) List(courseID string, page, limit int) ([]model.Quiz, int64, error) {
	var quizzes []model.Quiz
	var total int64
	query := r.DB.Model(&model.Quiz{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Order("created_at desc").Offset(offset).Limit(limit).Find(&quizzes).Error
	return quizzes, total, err
}

// Save persists the quiz and replaces its question set wholesale. Question
// rows are recreated so reorders, deletions and duplications land as one
// consistent snapshot.
func (r *QuizRepository) Save(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Save(quiz).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("quiz_id = ?", quiz.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		for i := range quiz.Questions {
			quiz.Questions[i].QuizID = quiz.ID
		}
		if len(quiz.Questions) == 0 {
			return nil
		}
		return tx.Create(&quiz.Questions).Error
	})
}

func (r *QuizRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, "id = ?", id).Error
	})
}
