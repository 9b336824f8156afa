package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
	"unix_companion/internal/config"
	"unix_companion/internal/model"
	"unix_companion/internal/repository"
	"unix_companion/internal/util"
	"unix_companion/pkg/logger"

	"go.uber.org/zap"
)

const xsrfCookieName = "XSRF-Token"

// AuthService holds the session against the learning platform: the bearer
// token obtained by logging in (aged out after a configurable number of
// days) and the anti-forgery token captured from the XSRF cookie.
type AuthService struct {
	states *repository.StateRepository
	cfg    *config.Store
	client *http.Client
	jar    *cookiejar.Jar
}

func NewAuthService(states *repository.StateRepository, cfg *config.Store) *AuthService {
	jar, _ := cookiejar.New(nil)
	return &AuthService{
		states: states,
		cfg:    cfg,
		jar:    jar,
		client: &http.Client{
			Timeout: cfg.Load().Upstream.Timeout(),
			Jar:     jar,
		},
	}
}

// Login authenticates against the platform and persists the bearer token
// with its capture timestamp.
func (s *AuthService) Login(ctx context.Context, login, password string) error {
	body, err := json.Marshal(model.LoginRequest{Login: login, Password: password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Load().Upstream.BaseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", util.ErrLoginFailed, resp.StatusCode)
	}

	var loginResp model.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("%w: %v", util.ErrLoginFailed, err)
	}
	if loginResp.Token == "" {
		return util.ErrLoginFailed
	}

	if err := s.states.Set(model.KeyAuthToken, loginResp.Token); err != nil {
		return err
	}
	if err := s.states.Set(model.KeyAuthTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		return err
	}

	logger.Log.Info("logged in to upstream")
	return nil
}

// BearerToken returns the stored auth token, or ErrAuthTokenMissing when it
// was never captured or has aged out.
func (s *AuthService) BearerToken() (string, error) {
	token, err := s.states.Get(model.KeyAuthToken)
	if errors.Is(err, util.ErrStateKeyNotFound) || token == "" {
		return "", util.ErrAuthTokenMissing
	}
	if err != nil {
		return "", err
	}

	raw, err := s.states.Get(model.KeyAuthTimestamp)
	if errors.Is(err, util.ErrStateKeyNotFound) {
		return "", util.ErrAuthTokenMissing
	}
	if err != nil {
		return "", err
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", util.ErrAuthTokenMissing
	}
	if time.Since(time.UnixMilli(ts)) > s.cfg.Load().Submission.AuthExpiry() {
		return "", util.ErrAuthTokenMissing
	}

	return token, nil
}

// RefreshXSRF pokes the CSRF validation endpoint and persists the
// XSRF-Token cookie it sets. Best-effort: the previously stored token may
// still be accepted.
func (s *AuthService) RefreshXSRF(ctx context.Context) error {
	bearer, err := s.BearerToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Load().Upstream.BaseURL+"/api/validates/csrf", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if xsrf, err := s.XSRFToken(); err == nil {
		req.AddCookie(&http.Cookie{Name: xsrfCookieName, Value: xsrf})
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	base, err := url.Parse(s.cfg.Load().Upstream.BaseURL)
	if err != nil {
		return err
	}
	for _, c := range s.jar.Cookies(base) {
		if c.Name == xsrfCookieName && c.Value != "" {
			return s.states.Set(model.KeyXSRFToken, c.Value)
		}
	}

	logger.Log.Debug("csrf refresh returned no XSRF-Token cookie", zap.Int("status", resp.StatusCode))
	return nil
}

// XSRFToken returns the stored anti-forgery token.
func (s *AuthService) XSRFToken() (string, error) {
	token, err := s.states.Get(model.KeyXSRFToken)
	if errors.Is(err, util.ErrStateKeyNotFound) || token == "" {
		return "", util.ErrXSRFTokenMissing
	}
	return token, err
}
