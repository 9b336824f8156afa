package service

import (
	"fmt"
	"testing"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateFixture(t *testing.T) (*StateService, *repository.CredentialRepository, *NotifyService) {
	t.Helper()
	db := newTestDB(t)
	creds := repository.NewCredentialRepository(db)
	notify := NewNotifyService()
	return NewStateService(repository.NewStateRepository(db), creds, notify), creds, notify
}

func videoStateJSON(lessonID, token string, lastWatched float64) string {
	return fmt.Sprintf(`{"%s":{"token":"%s","lastWatchedTime":%g}}`, lessonID, token, lastWatched)
}

func TestPutPersistsValue(t *testing.T) {
	svc, _, _ := newStateFixture(t)

	require.NoError(t, svc.Put(model.KeyAuthToken, "bearer"))

	got, err := svc.Get(model.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "bearer", got)
}

func TestPutCapturesTokenAtThreshold(t *testing.T) {
	svc, creds, notify := newStateFixture(t)
	token := makeWatchToken(42)

	require.NoError(t, svc.Put(model.KeyVideoState, videoStateJSON("7", token, 42)))

	got, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	require.Len(t, notify.Since(0), 1)

	// The raw value is persisted alongside the capture.
	raw, err := svc.Get(model.KeyVideoState)
	require.NoError(t, err)
	assert.Equal(t, videoStateJSON("7", token, 42), raw)
}

func TestPutSkipsCaptureBelowThreshold(t *testing.T) {
	svc, creds, notify := newStateFixture(t)
	token := makeWatchToken(42)

	require.NoError(t, svc.Put(model.KeyVideoState, videoStateJSON("7", token, 41.5)))

	got, err := creds.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, notify.Since(0))
}

func TestPutSameTokenDoesNotRenotify(t *testing.T) {
	svc, creds, notify := newStateFixture(t)
	token := makeWatchToken(42)

	require.NoError(t, svc.Put(model.KeyVideoState, videoStateJSON("7", token, 42)))
	require.NoError(t, svc.Put(model.KeyVideoState, videoStateJSON("7", token, 60)))

	got, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Len(t, notify.Since(0), 1, "an unchanged token is not announced again")
}

func TestPutCaptureIsBestEffort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"malformed json", `{"7":`},
		{"missing token", `{"7":{"lastWatchedTime":42}}`},
		{"missing lastWatchedTime", fmt.Sprintf(`{"7":{"token":"%s"}}`, makeWatchToken(42))},
		{"undecodable token", `{"7":{"token":"garbage","lastWatchedTime":42}}`},
		{"token without duration claim", `{"7":{"token":"` + makeClaimlessToken() + `","lastWatchedTime":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, creds, _ := newStateFixture(t)

			require.NoError(t, svc.Put(model.KeyVideoState, tt.value), "the write itself must go through")

			got, err := creds.Get()
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}
