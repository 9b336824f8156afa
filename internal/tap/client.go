package tap

import (
	"io"
	"net/http"
	"net/url"
	"unix_companion/pkg/monitoring"
)

// Response is a completed callback-style exchange.
type Response struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
}

// CallbackClient is the callback-style request primitive: done runs when the
// exchange completes, with either a response or an error.
type CallbackClient interface {
	Do(req *http.Request, done func(*Response, error))
}

type wrappedClient struct {
	next    CallbackClient
	match   MatchFunc
	observe ObserveFunc
}

// WrapClient decorates a CallbackClient the same way Transport decorates a
// RoundTripper: matching responses are copied to observe on a separate
// goroutine, so the original callback never waits on it. Idempotent.
func WrapClient(next CallbackClient, match MatchFunc, observe ObserveFunc) CallbackClient {
	if _, ok := next.(*wrappedClient); ok {
		return next
	}
	return &wrappedClient{next: next, match: match, observe: observe}
}

func (w *wrappedClient) Do(req *http.Request, done func(*Response, error)) {
	w.next.Do(req, func(resp *Response, err error) {
		if err == nil && resp != nil && resp.URL != nil && w.match(resp.URL) {
			body := append([]byte(nil), resp.Body...)
			u := resp.URL
			go func() {
				monitoring.TappedResponses.WithLabelValues("callback").Inc()
				w.observe(u, body)
			}()
		}
		done(resp, err)
	})
}

type httpCallbackClient struct {
	client *http.Client
}

// NewHTTPCallbackClient adapts an *http.Client to the callback primitive.
func NewHTTPCallbackClient(client *http.Client) CallbackClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpCallbackClient{client: client}
}

func (c *httpCallbackClient) Do(req *http.Request, done func(*Response, error)) {
	resp, err := c.client.Do(req)
	if err != nil {
		done(nil, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		done(nil, err)
		return
	}

	done(&Response{
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil)
}
