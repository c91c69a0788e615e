package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// TaskID is the backend's task identity. It is opaque to the client; the
// backend serializes it as a number, older payloads as a string.
type TaskID string

func (id TaskID) String() string { return string(id) }

func (id *TaskID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TaskID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("task id: expected string or number")
	}
	*id = TaskID(n.String())
	return nil
}

type Urgency string

const (
	UrgencyUrgent  Urgency = "URGENTE"
	UrgencyMedium  Urgency = "MEDIANO"
	UrgencyRoutine Urgency = "ROTINEIRA"
)

// Urgencies lists the tiers in display priority order.
var Urgencies = []Urgency{UrgencyUrgent, UrgencyMedium, UrgencyRoutine}

// Rank orders urgencies for display (lower is more urgent). Unknown values sort last.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyUrgent:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyRoutine:
		return 2
	default:
		return 3
	}
}

func (u Urgency) Valid() bool { return u.Rank() < 3 }

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusViewed    Status = "VIEWED"
	StatusCompleted Status = "COMPLETED"
	StatusArchived  Status = "ARCHIVED"
)

type Task struct {
	ID                TaskID    `json:"id"`
	Summary           string    `json:"resumoTarefa"`
	AISummary         string    `json:"aiSummaryFormatted,omitempty"`
	Urgency           Urgency   `json:"urgencia"`
	Category          string    `json:"categoriaSugerida"`
	FromEmail         string    `json:"fromEmail"`
	ToEmail           string    `json:"toEmail,omitempty"`
	ReceivedAt        Timestamp `json:"receivedAt"`
	Status            Status    `json:"status"`
	EmailSubject      string    `json:"emailSubject,omitempty"`
	EmailBody         string    `json:"emailBody,omitempty"`
	CompletionMessage string    `json:"completionMessage,omitempty"`
}

// DisplaySummary prefers the AI-formatted markdown summary when present.
func (t Task) DisplaySummary() string {
	if strings.TrimSpace(t.AISummary) != "" {
		return t.AISummary
	}
	return t.Summary
}

type TaskStats struct {
	UrgentCount    int `json:"urgent_count"`
	PendingCount   int `json:"pending_count"`
	CompletedCount int `json:"completed_count"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// TaskList is the /dashboard/tasks payload.
type TaskList struct {
	Tasks      []Task      `json:"tasks"`
	Stats      *TaskStats  `json:"stats,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type CreateTaskRequest struct {
	Title     string  `json:"title" validate:"required"`
	Recipient string  `json:"recipient" validate:"required,email"`
	Category  string  `json:"category" validate:"required"`
	Urgency   Urgency `json:"urgencia" validate:"required,oneof=URGENTE MEDIANO ROTINEIRA"`
	Subject   string  `json:"subject,omitempty"`
	Body      string  `json:"body,omitempty"`
}

type CreateTaskResult struct {
	Message string `json:"message,omitempty"`
	TaskID  TaskID `json:"task_id,omitempty"`
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message,omitempty"`
}

type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Company   string `json:"company,omitempty"`
	Connected bool   `json:"microsoftConnected"`
}

// UnmarshalJSON accepts both profile shapes served by the backend:
// camelCase or snake_case connection flag, and company as a name or an object.
func (p *UserProfile) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Name       string          `json:"name"`
		Email      string          `json:"email"`
		Role       string          `json:"role"`
		Company    json.RawMessage `json:"company"`
		Connected  *bool           `json:"microsoftConnected"`
		Connected2 *bool           `json:"microsoft_connected"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var id TaskID
	if len(raw.ID) > 0 {
		if err := id.UnmarshalJSON(raw.ID); err != nil {
			return errors.New("profile id: expected string or number")
		}
	}
	*p = UserProfile{
		ID:    string(id),
		Name:  raw.Name,
		Email: raw.Email,
		Role:  raw.Role,
	}
	switch {
	case raw.Connected != nil:
		p.Connected = *raw.Connected
	case raw.Connected2 != nil:
		p.Connected = *raw.Connected2
	}
	c := bytes.TrimSpace(raw.Company)
	switch {
	case len(c) == 0 || bytes.Equal(c, []byte("null")):
	case c[0] == '"':
		_ = json.Unmarshal(c, &p.Company)
	case c[0] == '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(c, &obj); err == nil {
			p.Company = obj.Name
		}
	}
	return nil
}

// Activity is one locally recorded mutation attempt.
type Activity struct {
	ID      string    `json:"id"`
	TS      time.Time `json:"ts"`
	Action  string    `json:"action"`
	TaskID  TaskID    `json:"taskId,omitempty"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Timestamp is a UTC instant. The backend emits zone-less local datetimes
// (e.g. "2025-01-02T10:00:00.123"), which are interpreted as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp{Time: time.UnixMilli(ms).UTC()}, nil
	}
	return Timestamp{}, errors.New("invalid timestamp: " + s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
