package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyForwardsAndTapsMatchingResponses(t *testing.T) {
	const lessonBody = `{"id":42,"isWatched":false}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/lessons/42":
			_, _ = w.Write([]byte(lessonBody))
		default:
			_, _ = w.Write([]byte(`{"other":true}`))
		}
	}))
	defer upstream.Close()

	observed := make(chan string, 2)
	proxy, err := NewProxyService(upstream.URL,
		func(u *url.URL) bool { return strings.HasPrefix(u.Path, "/api/lessons/") },
		func(u *url.URL, body []byte) { observed <- string(body) },
	)
	require.NoError(t, err)

	front := httptest.NewServer(proxy.Handler())
	defer front.Close()

	resp, err := http.Get(front.URL + "/api/lessons/42")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, lessonBody, string(body), "the page sees the upstream response unmodified")

	resp, err = http.Get(front.URL + "/api/courses")
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	select {
	case got := <-observed:
		assert.Equal(t, lessonBody, got)
	case <-time.After(time.Second):
		t.Fatal("tapped response never reached the observer")
	}
	select {
	case got := <-observed:
		t.Fatalf("non-matching path was observed: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProxyRejectsBadBaseURL(t *testing.T) {
	_, err := NewProxyService("://not-a-url", nil, nil)
	assert.Error(t, err)
}
