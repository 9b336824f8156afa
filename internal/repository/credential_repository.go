package repository

import (
	"errors"
	"unix_companion/internal/model"
	"unix_companion/internal/util"

	"gorm.io/gorm"
)

// CredentialRepository owns the single persisted watch credential. Nothing
// else writes the uniXVideoWatchToken key.
type CredentialRepository struct {
	states *StateRepository
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{states: NewStateRepository(db)}
}

// Get returns the current credential, or "" when none has been captured.
func (r *CredentialRepository) Get() (string, error) {
	token, err := r.states.Get(model.KeyWatchToken)
	if errors.Is(err, util.ErrStateKeyNotFound) {
		return "", nil
	}
	return token, err
}

func (r *CredentialRepository) Set(token string) error {
	return r.states.Set(model.KeyWatchToken, token)
}

func (r *CredentialRepository) Clear() error {
	return r.states.Delete(model.KeyWatchToken)
}
