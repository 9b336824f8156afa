package service

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"unix_companion/internal/tap"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

// ProxyService forwards the page's API traffic to the platform through the
// tapped transport, so every relevant response is copied to the classifier
// while the page sees exactly what the platform sent.
type ProxyService struct {
	proxy *httputil.ReverseProxy
}

func NewProxyService(baseURL string, match tap.MatchFunc, observe tap.ObserveFunc) (*ProxyService, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}
	proxy.Transport = tap.Transport(http.DefaultTransport, match, observe)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Log.Error("upstream proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}

	return &ProxyService{proxy: proxy}, nil
}

func (p *ProxyService) Handler() http.Handler {
	return p.proxy
}
