package repository

import (
	"encoding/json"
	"errors"
	"unix_companion/internal/model"
	"unix_companion/internal/util"

	"gorm.io/gorm"
)

// AnswerRepository owns the persisted question→answers mapping, stored
// wholesale under the uniXSavedAnswers key.
type AnswerRepository struct {
	states *StateRepository
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{states: NewStateRepository(db)}
}

func (r *AnswerRepository) Load() (map[string][]string, error) {
	raw, err := r.states.Get(model.KeySavedAnswers)
	if errors.Is(err, util.ErrStateKeyNotFound) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	mapping := map[string][]string{}
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

func (r *AnswerRepository) Store(mapping map[string][]string) error {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return r.states.Set(model.KeySavedAnswers, string(raw))
}
