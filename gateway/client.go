// Package gateway holds the REST clients for the route-planning backend.
//
// There is one client per backend namespace (route, auth, admin, user). Every
// failure, whether the request never completed, the backend answered with a
// non-2xx status, or the body reported success=false, comes back as a single
// *Error carrying the message to show the user. Nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is used when no API_URL override is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Error is the normalised failure of a gateway call. Status is 0 when no
// response was received.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Message returns the user-facing message of err, or fallback when err is
// not a gateway error.
func Message(err error, fallback string) string {
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return fallback
}

// Config configures a Gateway.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
	Logger    logrus.FieldLogger
}

// Gateway bundles the four namespace clients. The credentialed clients share
// one cookie jar, so the backend session cookie set by Login is sent with
// admin and user calls.
type Gateway struct {
	Route *RouteClient
	Auth  *AuthClient
	Admin *AdminClient
	User  *UserClient
}

// New builds a Gateway with its own cookie jar.
func New(cfg Config) (*Gateway, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	anonymous := &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	credentialed := &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport, Jar: jar}

	return &Gateway{
		Route: &RouteClient{c: newClient(base, "", anonymous, logger)},
		Auth:  &AuthClient{c: newClient(base, "/auth", credentialed, logger)},
		Admin: &AdminClient{c: newClient(base, "/admin", credentialed, logger)},
		User:  &UserClient{c: newClient(base, "/user", credentialed, logger)},
	}, nil
}

// client performs JSON calls against one namespace.
type client struct {
	base    string
	http    *http.Client
	headers http.Header
	log     logrus.FieldLogger
}

func newClient(base, namespace string, hc *http.Client, logger logrus.FieldLogger) *client {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return &client{
		base:    base + namespace,
		http:    hc,
		headers: h,
		log:     logger,
	}
}

// call sends one request and decodes a successful body into out. Any failure
// is returned as *Error; fallback is the message used when the backend did
// not provide one.
func (c *client) call(ctx context.Context, method, path string, query url.Values, body, out any, fallback string) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	fields := logrus.Fields{"method": method, "endpoint": endpoint}
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.log.WithFields(fields).WithError(err).Warn("gateway: encode request")
			return &Error{Message: fallback}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("gateway: build request")
		return &Error{Message: fallback}
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("gateway: transport failure")
		return &Error{Message: fallback}
	}
	defer resp.Body.Close()

	fields["status"] = resp.StatusCode
	fields["duration"] = time.Since(start).String()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("gateway: read response")
		return &Error{Status: resp.StatusCode, Message: fallback}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		c.log.WithFields(fields).WithField("error", msg).Warn("gateway: backend rejected request")
		return &Error{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		c.log.WithFields(fields).WithError(decodeErr).Warn("gateway: malformed response")
		return &Error{Status: resp.StatusCode, Message: fallback}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = fallback
		}
		c.log.WithFields(fields).WithField("error", msg).Warn("gateway: backend reported failure")
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.log.WithFields(fields).WithError(err).Warn("gateway: decode response")
			return &Error{Status: resp.StatusCode, Message: fallback}
		}
	}
	c.log.WithFields(fields).Debug("gateway: ok")
	return nil
}
