// Package api maps each task-service action onto one transport request.
// It holds no state; transport errors are returned unchanged.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/transport"
)

// Doer is the transport surface the client needs.
type Doer interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

type Client struct {
	t Doer
}

func New(t Doer) *Client {
	return &Client{t: t}
}

type ListOptions struct {
	// Status filters the list; empty defaults to "pending" (the dashboard view).
	Status string
	Page   int
	Size   int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	status := strings.ToLower(strings.TrimSpace(o.Status))
	if status == "" {
		status = "pending"
	}
	q.Set("status", status)
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	return q
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (model.TaskList, error) {
	var out model.TaskList
	err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/dashboard/tasks", Query: opts.query()}, &out)
	if err != nil {
		return model.TaskList{}, err
	}
	if out.Tasks == nil {
		out.Tasks = []model.Task{}
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id model.TaskID) (model.Task, error) {
	if err := requireID(id); err != nil {
		return model.Task{}, err
	}
	var out model.Task
	err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: taskPath(id, "")}, &out)
	return out, err
}

// CreateTask validates req locally before sending it; the backend remains the
// final authority on its content.
func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.CreateTaskResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Category = strings.TrimSpace(req.Category)
	if err := ValidateCreate(req); err != nil {
		return model.CreateTaskResult{}, err
	}
	var out model.CreateTaskResult
	err := c.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/tasks/send", JSON: req}, &out)
	return out, err
}

func (c *Client) MarkViewed(ctx context.Context, id model.TaskID) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.t.Do(ctx, transport.Request{Method: http.MethodPatch, Path: taskPath(id, "viewed")}, nil)
}

type completeBody struct {
	Message *string `json:"message,omitempty"`
}

// Complete marks a task completed; the backend notifies the task's origin address.
func (c *Client) Complete(ctx context.Context, id model.TaskID, message *string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.t.Do(ctx, transport.Request{Method: http.MethodPatch, Path: taskPath(id, "complete"), JSON: completeBody{Message: message}}, nil)
}

// SendReply emails message to the task's origin address. The body is raw text.
func (c *Client) SendReply(ctx context.Context, id model.TaskID, message string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.t.Do(ctx, transport.Request{Method: http.MethodPatch, Path: taskPath(id, "reply"), Text: &message}, nil)
}

func (c *Client) Profile(ctx context.Context) (model.UserProfile, error) {
	var out model.UserProfile
	err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/user/profile"}, &out)
	return out, err
}

// AuthorizationURL asks the backend for the mailbox integration consent URL.
func (c *Client) AuthorizationURL(ctx context.Context) (string, error) {
	var out struct {
		AuthorizationURL string `json:"authorizationUrl"`
	}
	if err := c.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/auth/authorize"}, &out); err != nil {
		return "", err
	}
	u := strings.TrimSpace(out.AuthorizationURL)
	if u == "" {
		return "", &transport.Error{Kind: transport.KindTransport, Op: "GET /auth/authorize", Err: errors.New("malformed response: missing authorizationUrl")}
	}
	return u, nil
}

func (c *Client) DisconnectIntegration(ctx context.Context) error {
	return c.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/user/disconnect-outlook"}, nil)
}

type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name,omitempty"`
}

// Login exchanges email and password for a session token. It is the
// password alternative to the identity provider redirect.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/login", JSON: body, Anonymous: true}, &out); err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return LoginResult{}, &transport.Error{Kind: transport.KindTransport, Op: "POST /auth/login", Err: errors.New("malformed response: missing token")}
	}
	return out, nil
}

// Logout tells the backend the session is over. The local credential is
// discarded by the session regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/logout"}, nil)
}

func (c *Client) SubmitContact(ctx context.Context, req model.ContactRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Company = strings.TrimSpace(req.Company)
	if err := ValidateContact(req); err != nil {
		return err
	}
	return c.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/public/contact", JSON: req, Anonymous: true}, nil)
}

func taskPath(id model.TaskID, action string) string {
	p := "/tasks/" + url.PathEscape(strings.TrimSpace(string(id)))
	if action != "" {
		p += "/" + action
	}
	return p
}

func requireID(id model.TaskID) error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: missing task id", ErrInvalidInput)
	}
	return nil
}
