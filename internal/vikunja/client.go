// Package vikunja is a typed HTTP client for the Vikunja task-tracking
// API. Every method performs a single attempt; transient failures are
// surfaced, not retried.
package vikunja

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// RequestTimeout bounds every API call so the launcher UI stays
	// responsive.
	RequestTimeout = 8 * time.Second

	listsPerPage = 50
	tasksPerPage = 20
)

// Client wraps the Vikunja REST API. The zero value is not usable; create
// one with New.
type Client struct {
	httpClient *http.Client
	// insecureClient skips TLS verification, for profiles that opted out.
	insecureClient *http.Client
}

// New creates a Client with the default request timeout.
func New() *Client {
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 - per-profile user opt-out

	return &Client{
		httpClient:     &http.Client{Timeout: RequestTimeout},
		insecureClient: &http.Client{Timeout: RequestTimeout, Transport: insecureTransport},
	}
}

// pagination is read from Vikunja's response headers.
type pagination struct {
	Page       int
	PerPage    int
	TotalPages int
	TotalCount int
}

func paginationFromHeaders(h http.Header) pagination {
	return pagination{
		Page:       headerInt(h, "X-Pagination-Page", 1),
		PerPage:    headerInt(h, "X-Pagination-Limit", listsPerPage),
		TotalPages: headerInt(h, "X-Pagination-TotalPages", 1),
		TotalCount: headerInt(h, "X-Pagination-Total", 0),
	}
}

func headerInt(h http.Header, key string, fallback int) int {
	v := h.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Login exchanges a username and password for a token. The credential pair
// exists only for the duration of this call and is never stored.
func (c *Client) Login(ctx context.Context, baseURL, username, password string, verifyTLS bool) (string, error) {
	conn := Connection{BaseURL: baseURL, TLSSkipVerify: !verifyTLS}
	payload := map[string]string{"username": username, "password": password}

	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, conn, http.MethodPost, "/auth/login", nil, payload, &result, nil); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", errors.New("login succeeded but no token was returned")
	}
	return result.Token, nil
}

// VerifyToken checks that the connection's token is accepted by the server.
func (c *Client) VerifyToken(ctx context.Context, conn Connection) error {
	var user struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, conn, http.MethodGet, "/user", nil, nil, &user, nil); err != nil {
		return err
	}
	if user.ID == 0 {
		return &APIError{Status: 401, Message: "token was not accepted"}
	}
	return nil
}

// Lists returns the first page of task lists.
func (c *Client) Lists(ctx context.Context, conn Connection) ([]List, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(listsPerPage))

	var lists []List
	if err := c.do(ctx, conn, http.MethodGet, "/lists", params, nil, &lists, nil); err != nil {
		return nil, err
	}
	return lists, nil
}

// SearchTasks searches tasks by free text. Page numbers are 1-based on the
// wire, matching the Vikunja API.
func (c *Client) SearchTasks(ctx context.Context, conn Connection, query string, page int) (TaskPage, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(tasksPerPage))

	return c.taskPage(ctx, conn, params)
}

// DueTasks returns tasks due within the period's window, soonest first.
func (c *Client) DueTasks(ctx context.Context, conn Connection, period DuePeriod, page int) (TaskPage, error) {
	now := time.Now().UTC()
	var start, end time.Time
	switch period {
	case DueToday:
		start = now.Truncate(24 * time.Hour)
		end = start.Add(24 * time.Hour)
	case DueTomorrow:
		start = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		end = start.Add(24 * time.Hour)
	default:
		start = now
		end = now.Add(7 * 24 * time.Hour)
	}

	params := url.Values{}
	params.Set("due_date_from", start.Format(time.RFC3339))
	params.Set("due_date_to", end.Format(time.RFC3339))
	params.Set("sort_by", "due_date")
	params.Set("order", "asc")
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(tasksPerPage))

	return c.taskPage(ctx, conn, params)
}

func (c *Client) taskPage(ctx context.Context, conn Connection, params url.Values) (TaskPage, error) {
	var payload []Task
	var pag pagination
	if err := c.do(ctx, conn, http.MethodGet, "/tasks/all", params, nil, &payload, &pag); err != nil {
		return TaskPage{}, err
	}

	for i := range payload {
		payload[i].URL = TaskURL(conn.BaseURL, payload[i].ID)
	}

	return TaskPage{
		Tasks:      payload,
		Page:       pag.Page,
		TotalPages: pag.TotalPages,
		TotalCount: pag.TotalCount,
		HasMore:    pag.Page < pag.TotalPages,
	}, nil
}

// CreateTask creates a task in the given list. due may be zero.
func (c *Client) CreateTask(ctx context.Context, conn Connection, listID int64, title, description string, due time.Time) (Task, error) {
	payload := map[string]any{"title": title}
	if description != "" {
		payload["description"] = description
	}
	if !due.IsZero() {
		payload["due_date"] = due.UTC().Format(time.RFC3339)
	}

	var task Task
	path := fmt.Sprintf("/lists/%d/tasks", listID)
	if err := c.do(ctx, conn, http.MethodPost, path, nil, payload, &task, nil); err != nil {
		return Task{}, err
	}
	task.URL = TaskURL(conn.BaseURL, task.ID)
	return task, nil
}

// CompleteTask marks a task as done.
func (c *Client) CompleteTask(ctx context.Context, conn Connection, taskID int64) (Task, error) {
	payload := map[string]any{"done": true}

	var task Task
	path := fmt.Sprintf("/tasks/%d", taskID)
	if err := c.do(ctx, conn, http.MethodPut, path, nil, payload, &task, nil); err != nil {
		return Task{}, err
	}
	task.URL = TaskURL(conn.BaseURL, task.ID)
	return task, nil
}

// Task fetches a single task by id.
func (c *Client) Task(ctx context.Context, conn Connection, taskID int64) (Task, error) {
	var task Task
	path := fmt.Sprintf("/tasks/%d", taskID)
	if err := c.do(ctx, conn, http.MethodGet, path, nil, nil, &task, nil); err != nil {
		return Task{}, err
	}
	task.URL = TaskURL(conn.BaseURL, task.ID)
	return task, nil
}

// do performs one request and decodes the JSON response into out. When pag
// is non-nil it is filled from the pagination headers. Non-2xx responses
// become *APIError; transport failures are classified onto the taxonomy.
func (c *Client) do(ctx context.Context, conn Connection, method, path string, params url.Values, body, out any, pag *pagination) error {
	reqURL := strings.TrimRight(conn.BaseURL, "/") + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if conn.Token != "" {
		req.Header.Set("Authorization", "Bearer "+conn.Token)
	}

	httpClient := c.httpClient
	if conn.TLSSkipVerify {
		httpClient = c.insecureClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: extractErrorMessage(resp.Body)}
	}

	if pag != nil {
		*pag = paginationFromHeaders(resp.Header)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// extractErrorMessage pulls a human-readable message from an error body.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
