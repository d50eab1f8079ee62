package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Task status values understood by the backend.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
)

// Task priority values understood by the backend.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a task record as returned by the backend.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// GetID returns the canonical record id.
func (t Task) GetID() string { return t.ID }

// UnmarshalJSON normalizes the record id: backends may carry the
// identifier under "_id" instead of "id". The canonical id is "id"
// when non-empty, else "_id", else the empty string.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		AltID string `json:"_id"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.AltID
	}
	return nil
}

// User is a user record as returned by the backend.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GetID returns the canonical record id.
func (u User) GetID() string { return u.ID }

// UnmarshalJSON applies the same id normalization as Task.UnmarshalJSON.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		AltID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.AltID
	}
	return nil
}

// Credentials are the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Pagination mirrors the metadata block of list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ListParams are the query parameters accepted by list endpoints.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
}

// Values encodes the parameters as a URL query, omitting zero values.
func (p *ListParams) Values() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return q
}

// response is the success envelope every endpoint uses. List endpoints
// additionally populate Metadata.
type response[T any] struct {
	Success  bool        `json:"success"`
	Data     T           `json:"data"`
	Metadata *Pagination `json:"metadata,omitempty"`
}

// CreateTaskInput is the payload for creating a task.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// UpdateTaskInput is the payload for updating a task. Empty fields are
// omitted so the backend treats them as unchanged.
type UpdateTaskInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserInput is the payload for updating a user.
type UpdateUserInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
