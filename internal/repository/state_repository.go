package repository

import (
	"errors"
	"unix_companion/internal/model"
	"unix_companion/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StateRepository struct {
	DB *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{DB: db}
}

func (r *StateRepository) Get(key string) (string, error) {
	var entry model.StateEntry
	err := r.DB.Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrStateKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (r *StateRepository) Set(key, value string) error {
	entry := model.StateEntry{Key: key, Value: value}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (r *StateRepository) Delete(key string) error {
	return r.DB.Where("key = ?", key).Delete(&model.StateEntry{}).Error
}

func (r *StateRepository) All() ([]model.StateEntry, error) {
	var entries []model.StateEntry
	err := r.DB.Order("key asc").Find(&entries).Error
	return entries, err
}
