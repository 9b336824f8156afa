package model

import "time"

// StateEntry mirrors one key of the page-local persistent storage. The shim
// forwards every write here so the companion sees the same state the page
// does.
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StateEntry) TableName() string {
	return "state_entries"
}

// Well-known storage keys, kept byte-for-byte compatible with the page's
// own storage so existing state survives.
const (
	KeyVideoState    = "unix-video-state"
	KeyWatchToken    = "uniXVideoWatchToken"
	KeyAuthToken     = "uniXAuthToken"
	KeyAuthTimestamp = "uniXTokenTimestamp"
	KeyXSRFToken     = "uniXXsrfToken"
	KeySavedAnswers  = "uniXSavedAnswers"
)
