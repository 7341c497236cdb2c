package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"

	"github.com/go-redis/redis/v8"
)

const draftKeyPrefix = "quiz:draft:"

// RecoveryRepository is the autosave/recovery store for in-progress delivery
// sessions. Drafts are advisory crash-recovery copies, never authoritative:
// scoring only ever sees the session's in-memory answers.
type RecoveryRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRecoveryRepository(rdb *redis.Client, ttl time.Duration) *RecoveryRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RecoveryRepository{Redis: rdb, TTL: ttl}
}

func (r *RecoveryRepository) SaveDraftAnswers(ctx context.Context, sessionKey string, answers model.AnswerSet) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, draftKeyPrefix+sessionKey, payload, r.TTL).Err()
}

// LoadDraftAnswers returns the saved draft, or nil when none exists.
func (r *RecoveryRepository) LoadDraftAnswers(ctx context.Context, sessionKey string) (model.AnswerSet, error) {
	payload, err := r.Redis.Get(ctx, draftKeyPrefix+sessionKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var answers model.AnswerSet
	if err := json.Unmarshal(payload, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *RecoveryRepository) DeleteDraftAnswers(ctx context.Context, sessionKey string) error {
	return r.Redis.Del(ctx, draftKeyPrefix+sessionKey).Err()
}
