package his

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for the HIS gateway. Handlers map these onto HTTP statuses.
var (
	// ErrAuthRejected means the HIS refused the login credentials or the
	// login endpoint was unreachable.
	ErrAuthRejected = errors.New("his: authentication rejected")
	// ErrRenewRejected means the HIS refused the renew code.
	ErrRenewRejected = errors.New("his: session renewal rejected")
	// ErrOrderNotFound means the HIS reports no order for the given code.
	ErrOrderNotFound = errors.New("his: order not found")
	// ErrUpstreamCall covers every other non-success HIS response.
	ErrUpstreamCall = errors.New("his: upstream call failed")
)

// DefaultTimeout bounds every HIS round-trip.
const DefaultTimeout = 30 * time.Second

// envelope is the uniform HIS response wrapper. Success=false is a hard
// failure regardless of what Data holds.
type envelope struct {
	Success bool            `json:"Success"`
	Data    json.RawMessage `json:"Data"`
}

// Session is the credential material a successful login or renewal returns.
type Session struct {
	SessionCode string
	RenewCode   string
	ExpiresAt   time.Time
	Username    string
}

type loginResponse struct {
	SessionCode string          `json:"sessionCode"`
	RenewCode   string          `json:"renewCode"`
	ExpiresAt   interface{}     `json:"expiresAt"`
	UserInfo    json.RawMessage `json:"userInfo"`
}

// Gateway is the HIS surface the rest of the system depends on.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Renew(ctx context.Context, renewCode string) (*Session, error)
	GetOrder(ctx context.Context, sessionCode, orderCode string) (*OrderSnapshot, error)
	CallAPI(ctx context.Context, endpoint string, payload interface{}, sessionCode string) (json.RawMessage, error)
}

// Client talks to the HIS HTTP API.
type Client struct {
	baseURL string
	appCode string
	http    *http.Client
}

func NewClient(baseURL, appCode string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appCode: appCode,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{
		"appCode":  c.appCode,
		"username": username,
		"password": password,
	}
	data, err := c.post(ctx, "/api/Token/Login", body, "")
	if err != nil {
		if errors.Is(err, ErrUpstreamCall) {
			return nil, fmt.Errorf("%w: login for %s", ErrAuthRejected, username)
		}
		return nil, err
	}

	sess, err := c.decodeSession(data)
	if err != nil {
		return nil, err
	}
	sess.Username = username
	return sess, nil
}

func (c *Client) Renew(ctx context.Context, renewCode string) (*Session, error) {
	body := map[string]string{
		"appCode":   c.appCode,
		"renewCode": renewCode,
	}
	data, err := c.post(ctx, "/api/Token/Renew", body, "")
	if err != nil {
		if errors.Is(err, ErrUpstreamCall) {
			return nil, fmt.Errorf("%w", ErrRenewRejected)
		}
		return nil, err
	}
	return c.decodeSession(data)
}

func (c *Client) GetOrder(ctx context.Context, sessionCode, orderCode string) (*OrderSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/ServiceRequest/"+orderCode, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionCode)

	data, status, err := c.do(req)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderCode)
		}
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderCode)
	}
	return ParseOrderSnapshot(data)
}

func (c *Client) CallAPI(ctx context.Context, endpoint string, payload interface{}, sessionCode string) (json.RawMessage, error) {
	return c.post(ctx, endpoint, payload, sessionCode)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, sessionCode string) (json.RawMessage, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionCode != "" {
		req.Header.Set("Authorization", "Bearer "+sessionCode)
	}

	data, _, err := c.do(req)
	return data, err
}

// do performs the round-trip and unwraps the response envelope. The HTTP
// status is returned alongside the error so callers can attach their own
// meaning to statuses like 404.
func (c *Client) do(req *http.Request) (json.RawMessage, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrUpstreamCall, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrUpstreamCall, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: decode envelope: %v", ErrUpstreamCall, err)
	}
	if !env.Success {
		return nil, resp.StatusCode, fmt.Errorf("%w: upstream reported failure", ErrUpstreamCall)
	}
	return env.Data, resp.StatusCode, nil
}

func (c *Client) decodeSession(data json.RawMessage) (*Session, error) {
	var lr loginResponse
	dec := newNumberDecoder(data)
	if err := dec.Decode(&lr); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", ErrUpstreamCall, err)
	}
	if lr.SessionCode == "" {
		return nil, fmt.Errorf("%w: empty session code", ErrUpstreamCall)
	}

	expires, err := DecodeTimestamp(lr.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: session expiry: %v", ErrUpstreamCall, err)
	}

	return &Session{
		SessionCode: lr.SessionCode,
		RenewCode:   lr.RenewCode,
		ExpiresAt:   expires,
	}, nil
}
