// Package tap wraps the two network primitives the companion observes: the
// blocking http.RoundTripper used by the upstream proxy, and a
// callback-style client. Wrapping is transparent: the original consumer sees
// an unmodified, undelayed response; matching bodies are duplicated to the
// observer, never drained from the caller.
package tap

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sync"
	"unix_companion/pkg/monitoring"
)

// MatchFunc decides whether a response URL is interesting enough to copy.
type MatchFunc func(u *url.URL) bool

// ObserveFunc receives an independent copy of a matching response body.
type ObserveFunc func(u *url.URL, body []byte)

type transport struct {
	next    http.RoundTripper
	match   MatchFunc
	observe ObserveFunc
}

// Transport decorates next so matching response bodies are copied to observe
// once fully read (or closed) by the original consumer. Non-matching
// responses pass through untouched. Wrapping an already wrapped transport
// returns it unchanged, so repeated installation cannot double-fire.
func Transport(next http.RoundTripper, match MatchFunc, observe ObserveFunc) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if _, ok := next.(*transport); ok {
		return next
	}
	return &transport{next: next, match: match, observe: observe}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}
	if !t.match(req.URL) {
		return resp, err
	}

	u := *req.URL
	resp.Body = &teeBody{
		rc: resp.Body,
		fire: func(body []byte) {
			monitoring.TappedResponses.WithLabelValues("roundtripper").Inc()
			t.observe(&u, body)
		},
	}
	return resp, nil
}

// teeBody copies everything the consumer reads. The observer fires exactly
// once, on its own goroutine, when the stream hits EOF or is closed, so it
// sees the same bytes the consumer saw and the consumer never waits on it.
type teeBody struct {
	rc   io.ReadCloser
	buf  bytes.Buffer
	fire func([]byte)
	once sync.Once
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	if n > 0 {
		t.buf.Write(p[:n])
	}
	if err == io.EOF {
		t.emit()
	}
	return n, err
}

func (t *teeBody) Close() error {
	err := t.rc.Close()
	t.emit()
	return err
}

func (t *teeBody) emit() {
	t.once.Do(func() {
		// Nothing writes buf after EOF or Close, so the slice is stable.
		body := t.buf.Bytes()
		go t.fire(body)
	})
}
