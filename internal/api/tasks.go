package api

import (
	"context"
	"net/url"
)

// TaskPage is one page of the task collection.
type TaskPage struct {
	Tasks    []Task
	Metadata Pagination
}

// TasksService maps the task endpoints. Stateless; caching lives in the
// task store.
type TasksService struct {
	client *Client
}

// NewTasksService creates the tasks service.
func NewTasksService(client *Client) *TasksService {
	return &TasksService{client: client}
}

// List fetches a page of tasks. A nil params fetches the default page.
func (s *TasksService) List(ctx context.Context, params *ListParams) (*TaskPage, error) {
	var resp response[[]Task]
	if err := s.client.Get(ctx, "/tasks", params.Values(), &resp); err != nil {
		return nil, err
	}
	page := &TaskPage{Tasks: resp.Data}
	if resp.Metadata != nil {
		page.Metadata = *resp.Metadata
	}
	return page, nil
}

// Get fetches a single task by id.
func (s *TasksService) Get(ctx context.Context, id string) (*Task, error) {
	var resp response[Task]
	if err := s.client.Get(ctx, "/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create creates a task.
func (s *TasksService) Create(ctx context.Context, input CreateTaskInput) (*Task, error) {
	var resp response[Task]
	if err := s.client.Post(ctx, "/tasks", input, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Update replaces the mutable fields of a task.
func (s *TasksService) Update(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	var resp response[Task]
	if err := s.client.Put(ctx, "/tasks/"+url.PathEscape(id), input, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes a task.
func (s *TasksService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/tasks/"+url.PathEscape(id))
}

// ChangeStatus moves a task to a new status through the dedicated
// partial-update endpoint.
func (s *TasksService) ChangeStatus(ctx context.Context, id, status string) (*Task, error) {
	payload := struct {
		Status string `json:"status"`
	}{Status: status}

	var resp response[Task]
	if err := s.client.Patch(ctx, "/tasks/"+url.PathEscape(id)+"/status-change", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
