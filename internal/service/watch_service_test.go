package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/tap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream plays the platform: it answers the CSRF refresh and records
// every completion acknowledgement it receives.
type fakeUpstream struct {
	mu            sync.Mutex
	watchedStatus int
	watched       []*http.Request
	watchedBodies []model.WatchedRequest
}

func (f *fakeUpstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/validates/csrf":
			http.SetCookie(w, &http.Cookie{Name: "XSRF-Token", Value: "fresh-xsrf"})
			w.WriteHeader(http.StatusNoContent)
		default:
			f.mu.Lock()
			defer f.mu.Unlock()
			body, _ := io.ReadAll(r.Body)
			var req model.WatchedRequest
			_ = json.Unmarshal(body, &req)
			f.watched = append(f.watched, r.Clone(r.Context()))
			f.watchedBodies = append(f.watchedBodies, req)
			w.WriteHeader(f.watchedStatus)
		}
	})
}

func (f *fakeUpstream) watchedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watched)
}

type watchFixture struct {
	svc      *WatchService
	page     *PageService
	creds    *repository.CredentialRepository
	notify   *NotifyService
	upstream *fakeUpstream
	server   *httptest.Server
}

func newWatchFixture(t *testing.T, watchedStatus int) *watchFixture {
	t.Helper()

	upstream := &fakeUpstream{watchedStatus: watchedStatus}
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	db := newTestDB(t)
	cfg := newTestConfig(server.URL)
	states := repository.NewStateRepository(db)
	creds := repository.NewCredentialRepository(db)
	notify := NewNotifyService()
	page := NewPageService()
	auth := NewAuthService(states, cfg)

	require.NoError(t, states.Set(model.KeyAuthToken, "bearer-token"))
	require.NoError(t, states.Set(model.KeyAuthTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10)))
	require.NoError(t, states.Set(model.KeyXSRFToken, "seed-xsrf"))
	require.NoError(t, creds.Set("watch-token"))

	svc := NewWatchService(cfg, page, auth, creds, notify, tap.NewHTTPCallbackClient(http.DefaultClient))
	page.SetLocation("https://uni-x.almv.kz/lessons/42")

	return &watchFixture{svc: svc, page: page, creds: creds, notify: notify, upstream: upstream, server: server}
}

func reloadNotices(notices []model.Notice) []model.Notice {
	var out []model.Notice
	for _, n := range notices {
		if n.ReloadInMs > 0 {
			out = append(out, n)
		}
	}
	return out
}

func TestDecideSubmitsAndSucceeds(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 120.9})

	assert.Equal(t, StateSucceeded, f.svc.State())
	require.Equal(t, 1, f.upstream.watchedCount())

	req := f.upstream.watched[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/lessons/42/watched", req.URL.Path)
	assert.Equal(t, "Bearer bearer-token", req.Header.Get("Authorization"))
	cookie, err := req.Cookie("XSRF-Token")
	require.NoError(t, err)
	assert.Equal(t, "fresh-xsrf", cookie.Value, "the token refreshed just before the POST is sent")

	sent := f.upstream.watchedBodies[0]
	assert.Equal(t, "watch-token", sent.Token)
	assert.Equal(t, 120, sent.VideoDuration, "fractional durations are floored")
	assert.Equal(t, 120, sent.VideoWatched)

	reloads := reloadNotices(f.notify.Since(0))
	require.Len(t, reloads, 1)
	assert.Equal(t, 1500, reloads[0].ReloadInMs)
	assert.Equal(t, model.NoticeSuccess, reloads[0].Level)
}

func TestDecideRejectionClearsCredentialOnce(t *testing.T) {
	f := newWatchFixture(t, http.StatusUnauthorized)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, StateInvalidated, f.svc.State())
	got, err := f.creds.Get()
	require.NoError(t, err)
	assert.Empty(t, got, "a rejected credential is discarded")
	require.Len(t, reloadNotices(f.notify.Since(0)), 1)

	// The scheduled reload replays the pipeline with no credential left.
	f.page.SetLocation("https://uni-x.almv.kz/courses")
	f.page.SetLocation("https://uni-x.almv.kz/lessons/42")
	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, StateFailed, f.svc.State())
	assert.Equal(t, 1, f.upstream.watchedCount(), "no credential means no second POST")
	assert.Len(t, reloadNotices(f.notify.Since(0)), 1, "rejection must not loop reloads")
}

func TestDecideBadRequestAlsoInvalidates(t *testing.T) {
	f := newWatchFixture(t, http.StatusBadRequest)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, StateInvalidated, f.svc.State())
	got, err := f.creds.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecideServerErrorFailsWithoutClearing(t *testing.T) {
	f := newWatchFixture(t, http.StatusInternalServerError)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, StateFailed, f.svc.State())
	got, err := f.creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "watch-token", got, "only 400 and 401 invalidate the credential")
	assert.Empty(t, reloadNotices(f.notify.Since(0)))
}

func TestDecideAlreadyWatchedSkipsNetwork(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", IsWatched: true, Duration: 100})

	assert.Equal(t, StateSucceeded, f.svc.State())
	assert.Zero(t, f.upstream.watchedCount())
	notices := f.notify.Since(0)
	require.Len(t, notices, 1)
	assert.Zero(t, notices[0].ReloadInMs, "an already-watched lesson needs no reload")
}

func TestDecideIgnoresForeignLesson(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)

	f.svc.Decide(model.LessonLoaded{LessonID: "99", Duration: 100})

	assert.Equal(t, StateIdle, f.svc.State())
	assert.Zero(t, f.upstream.watchedCount())
	assert.Empty(t, f.notify.Since(0))
}

func TestDecideOncePerPageLoad(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})
	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, 1, f.upstream.watchedCount(), "a repeated event on the same page load is ignored")

	// A navigation away and back re-arms the machine.
	f.page.SetLocation("https://uni-x.almv.kz/lessons/7")
	f.page.SetLocation("https://uni-x.almv.kz/lessons/42")
	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, 2, f.upstream.watchedCount())
}

func TestDecideMissingCredential(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)
	require.NoError(t, f.creds.Clear())

	f.svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})

	assert.Equal(t, StateFailed, f.svc.State())
	assert.Zero(t, f.upstream.watchedCount())
	notices := f.notify.Since(0)
	require.Len(t, notices, 1)
	assert.Equal(t, model.NoticeWarning, notices[0].Level)
}

// nilResponseClient completes an exchange with neither response nor error.
type nilResponseClient struct{}

func (nilResponseClient) Do(req *http.Request, done func(*tap.Response, error)) {
	done(nil, nil)
}

func TestDecideSurvivesNilResponse(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig("http://127.0.0.1:1")
	states := repository.NewStateRepository(db)
	creds := repository.NewCredentialRepository(db)
	notify := NewNotifyService()
	page := NewPageService()
	auth := NewAuthService(states, cfg)

	require.NoError(t, states.Set(model.KeyAuthToken, "bearer-token"))
	require.NoError(t, states.Set(model.KeyAuthTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10)))
	require.NoError(t, states.Set(model.KeyXSRFToken, "seed-xsrf"))
	require.NoError(t, creds.Set("watch-token"))

	svc := NewWatchService(cfg, page, auth, creds, notify, nilResponseClient{})
	page.SetLocation("https://uni-x.almv.kz/lessons/42")

	assert.NotPanics(t, func() {
		svc.Decide(model.LessonLoaded{LessonID: "42", Duration: 100})
	})
	assert.Equal(t, StateFailed, svc.State())

	got, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "watch-token", got, "an empty completion must not invalidate the credential")
}

func TestHandleLessonLoadedIgnoresForeignPayload(t *testing.T) {
	f := newWatchFixture(t, http.StatusOK)
	assert.NotPanics(t, func() { f.svc.HandleLessonLoaded(42) })
	assert.Zero(t, f.upstream.watchedCount())
}
