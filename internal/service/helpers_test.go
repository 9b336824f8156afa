package service

import (
	"encoding/base64"
	"fmt"
	"testing"
	"unix_companion/internal/config"
	"unix_companion/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.StateEntry{}))
	return db
}

func newTestConfig(baseURL string) *config.Store {
	cfg := &config.Config{}
	cfg.Upstream.BaseURL = baseURL
	cfg.Upstream.TimeoutSeconds = 5
	cfg.Submission.ReloadDelayMs = 1500
	cfg.Submission.AuthExpiryDays = 7
	return config.NewStore(cfg)
}

// makeWatchToken builds an unsigned token whose payload carries the given
// videoDuration claim.
func makeWatchToken(videoDuration float64) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"videoDuration":%g}`, videoDuration)))
	return header + "." + payload + ".c2ln"
}

// makeClaimlessToken builds a decodable token whose payload has no
// videoDuration claim.
func makeClaimlessToken() string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"7"}`))
	return header + "." + payload + ".c2ln"
}
