// Package oneview is the gateway's adapter for the HPE OneView REST API.
package oneview

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/metric"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/apimachinery/pkg/util/wait"
)

const tracerName = "github.com/mpramodhpe/oneview-redfish-toolkit/oneview"

const (
	loginSessionsPath  = "/rest/login-sessions"
	serverHardwarePath = "/rest/server-hardware/"
	versionPath        = "/rest/version"
)

// maximum size of a OneView response body we are willing to decode
const maxBodySize = 16 << 20

var errNotLoggedIn = errors.New("oneview: no active session")

// DefaultLoginBackoff is used by LoginWithBackoff when the caller has no preference.
var DefaultLoginBackoff = wait.Backoff{
	Duration: 2 * time.Second,
	Factor:   2,
	Jitter:   0.1,
	Steps:    5,
	Cap:      time.Minute,
}

// Client talks to one OneView appliance using a login session token.
type Client struct {
	// Log is the logger to be used by the client.
	Log logr.Logger

	cfg     config.OneViewConfig
	baseURL *url.URL
	http    *http.Client

	mu      sync.Mutex // protects session
	session string
}

type loginRequest struct {
	UserName        string `json:"userName"`
	Password        string `json:"password"`
	AuthLoginDomain string `json:"authLoginDomain,omitempty"`
}

type loginResponse struct {
	SessionID string `json:"sessionID"`
}

// NewClient creates a client for the appliance in cfg. It does not log in.
func NewClient(l logr.Logger, cfg config.OneViewConfig) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid oneview endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid oneview endpoint %q", cfg.Endpoint)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure, //nolint:gosec // appliances commonly ship self-signed certificates
		},
	}

	return &Client{
		Log:     l,
		cfg:     cfg,
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}, nil
}

// Login opens a new session and stores its token.
func (c *Client) Login(ctx context.Context) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "oneview.Login", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body, err := json.Marshal(loginRequest{
		UserName:        c.cfg.Username,
		Password:        c.cfg.Password,
		AuthLoginDomain: c.cfg.AuthLoginDomain,
	})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, loginSessionsPath, bytes.NewReader(body), "")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("oneview login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := decodeError(resp)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("oneview login failed: %w", err)
	}

	var lr loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&lr); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("oneview login failed: decoding session: %w", err)
	}
	if lr.SessionID == "" {
		return fmt.Errorf("oneview login failed: empty session id")
	}

	c.mu.Lock()
	c.session = lr.SessionID
	c.mu.Unlock()

	c.Log.Info("oneview session established", "endpoint", c.baseURL.Host)
	span.SetStatus(codes.Ok, "")

	return nil
}

// LoginWithBackoff retries Login until it succeeds, backoff is exhausted or ctx ends.
func (c *Client) LoginWithBackoff(ctx context.Context, backoff wait.Backoff) error {
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		if err := c.Login(ctx); err != nil {
			lastErr = err
			c.Log.Info("oneview login attempt failed, retrying", "err", err)
			return false, nil
		}
		return true, nil
	})
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

// LoggedIn reports whether the client currently holds a session token.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != ""
}

// Ping checks that the appliance answers its unauthenticated version endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, versionPath, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oneview version endpoint answered %d", resp.StatusCode)
	}
	if !c.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// ServerHardware fetches /rest/server-hardware/{id}.
func (c *Client) ServerHardware(ctx context.Context, id string) (Resource, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "oneview.ServerHardware", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("oneview.server_hardware.id", id))

	var r Resource
	err := c.getJSON(ctx, serverHardwarePath+url.PathEscape(id), &r)
	metric.ObserveBackendCall("server_hardware", outcome(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return r, nil
}

// getJSON performs an authenticated GET, logging in again once if the session expired.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	for attempt := 0; ; attempt++ {
		c.mu.Lock()
		session := c.session
		c.mu.Unlock()

		if session == "" {
			if err := c.Login(ctx); err != nil {
				return err
			}
			continue
		}

		resp, err := c.do(ctx, http.MethodGet, path, nil, session)
		if err != nil {
			return fmt.Errorf("oneview GET %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.Log.V(1).Info("oneview session rejected, logging in again", "path", path)
			c.mu.Lock()
			if c.session == session {
				c.session = ""
			}
			c.mu.Unlock()
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := decodeError(resp)
			resp.Body.Close()
			return err
		}

		err = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("oneview GET %s: decoding body: %w", path, err)
		}
		return nil
	}
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	body io.Reader,
	session string,
) (*http.Response, error) {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIVersion > 0 {
		req.Header.Set("X-API-Version", strconv.Itoa(c.cfg.APIVersion))
	}
	if session != "" {
		req.Header.Set("Auth", session)
	}

	return c.http.Do(req)
}

// decodeError turns a non-2xx OneView response into an *Error. Bodies that are not
// OneView error documents still produce an *Error carrying the status code.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	e := &Error{}
	if err := json.Unmarshal(data, e); err != nil || e.Code == "" {
		e = &Error{
			Code:    "HTTP_" + strconv.Itoa(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}
	}
	e.StatusCode = resp.StatusCode
	return e
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case KindOf(err) == KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}
