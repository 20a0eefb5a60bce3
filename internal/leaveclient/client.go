package leaveclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go-timeoff/internal/leavepolicy"
	"go-timeoff/internal/shared/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// LeaveRequest is one submitted request as returned by the service.
type LeaveRequest struct {
	ID            string `json:"id"`
	RequestNumber string `json:"request_number"`
	EmployeeID    string `json:"employee_id"`
	LeaveType     string `json:"leave_type"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalDays     int    `json:"total_days"`
	LeaveAmount   int    `json:"leave_amount"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
}

// CreatePayload is the body of a new request. Status and LeaveAmount are
// informative: the service assigns the authoritative values.
type CreatePayload struct {
	EmployeeID  string `json:"employee_id"`
	LeaveType   string `json:"leave_type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	LeaveAmount int    `json:"leave_amount"`
}

// Client is the REST collaborator the leave form talks to.
type Client interface {
	GetLeaveBalance(ctx context.Context, employeeID string) (leavepolicy.Balance, error)
	GetRecentLeaveRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	CreateLeaveRequest(ctx context.Context, payload CreatePayload) (LeaveRequest, error)
}

// APIError is a non-2xx answer or an envelope with ok=false.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("leave api error: status %d", e.Status)
	}
	return fmt.Sprintf("leave api error: status %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Ok    bool                `json:"ok"`
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

func NewClient(baseURL, token string, httpClient *http.Client, logger ...*zap.Logger) *HTTPClient {
	l := zap.L().Named("leave.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.client")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		logger:     l,
	}
}

func (c *HTTPClient) GetLeaveBalance(ctx context.Context, employeeID string) (leavepolicy.Balance, error) {
	var out leavepolicy.Balance
	path := "/api/v1/employees/" + url.PathEscape(employeeID) + "/leave-balance"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return leavepolicy.Balance{}, err
	}
	return out, nil
}

func (c *HTTPClient) GetRecentLeaveRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var out []LeaveRequest
	path := "/api/v1/employees/" + url.PathEscape(employeeID) + "/leave-requests"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLeaveRequest sends a fresh idempotency key on every call, so a
// retried call is a new request.
func (c *HTTPClient) CreateLeaveRequest(ctx context.Context, payload CreatePayload) (LeaveRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return LeaveRequest{}, fmt.Errorf("encode leave request: %w", err)
	}
	headers := map[string]string{IdempotencyHeader: uuid.NewString()}

	var out LeaveRequest
	if err := c.do(ctx, http.MethodPost, "/api/v1/leaves", body, headers, &out); err != nil {
		return LeaveRequest{}, err
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || !env.Ok {
		apiErr := mapAPIError(resp.StatusCode, env, decodeErr, raw)
		c.logger.Warn("leave api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func mapAPIError(status int, env envelope, decodeErr error, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	if decodeErr == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
