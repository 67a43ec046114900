// Package survey keeps submitted questionnaire answers between the
// validation step and the recommendation step of a quote.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insurance-quote-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAnswersNotFound = errors.New("SURVEY_ANSWERS_NOT_FOUND")
	ErrStoreFailed     = errors.New("SURVEY_STORE_FAILED")
)

const keyPrefix = "survey:answers:"

// Store persists answers in Redis keyed by quote session.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Save overwrites any answers already stored for sessionID.
func (s *Store) Save(ctx context.Context, sessionID string, answers models.SurveyAnswers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if err := s.redis.Set(ctx, key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (models.SurveyAnswers, error) {
	var answers models.SurveyAnswers

	raw, err := s.redis.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return answers, ErrAnswersNotFound
	}
	if err != nil {
		return answers, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return answers, fmt.Errorf("%w: corrupt answers for %s: %v", ErrStoreFailed, sessionID, err)
	}
	return answers, nil
}

// Delete removes the answers once a recommendation list was produced.
// Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}
