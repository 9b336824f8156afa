package model

import "time"

const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is one message for the in-page sink (toasts, reload trigger). A
// positive ReloadInMs asks the shim to reload the page after that delay.
type Notice struct {
	ID         uint64    `json:"id"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	ReloadInMs int       `json:"reloadInMs,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
