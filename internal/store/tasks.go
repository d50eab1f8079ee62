package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/client-go/internal/api"
	"github.com/taskboard/client-go/internal/metrics"
)

// TasksStore caches the task collection. New tasks are prepended so the
// collection stays in most-recent-first order.
type TasksStore struct {
	svc     *api.TasksService
	log     zerolog.Logger
	metrics *metrics.Metrics
	col     collection[api.Task]
}

// NewTasksStore creates the task store.
func NewTasksStore(svc *api.TasksService, opts ...Option) *TasksStore {
	o := applyOptions(opts)
	return &TasksStore{
		svc:     svc,
		log:     o.log,
		metrics: o.metrics,
		col:     newCollection[api.Task](o.ttl, o.now),
	}
}

// Fetch returns the cached tasks, going to the backend only when forced,
// uninitialized, stale, or given explicit filter params. On failure the
// previous collection is left untouched and the error is returned.
func (s *TasksStore) Fetch(ctx context.Context, force bool, params *api.ListParams) ([]api.Task, error) {
	if !s.col.shouldFetch(force, params != nil) {
		s.metrics.RecordCacheHit("tasks")
		return s.col.snapshot(), nil
	}
	s.metrics.RecordCacheMiss("tasks")

	s.col.setLoading(true)
	defer s.col.setLoading(false)

	page, err := s.svc.List(ctx, params)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch tasks")
		return nil, err
	}

	s.col.replaceAll(page.Tasks, page.Metadata)
	return s.col.snapshot(), nil
}

// Refresh forces a fetch regardless of staleness.
func (s *TasksStore) Refresh(ctx context.Context) ([]api.Task, error) {
	return s.Fetch(ctx, true, nil)
}

// Create creates a task and prepends it to the cached collection.
func (s *TasksStore) Create(ctx context.Context, input api.CreateTaskInput) (*api.Task, error) {
	task, err := s.svc.Create(ctx, input)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create task")
		return nil, err
	}
	s.col.insert(*task, true)
	return task, nil
}

// Update updates a task and replaces it in place in the cache. If the
// id is not cached locally the result is dropped, not inserted.
func (s *TasksStore) Update(ctx context.Context, id string, input api.UpdateTaskInput) (*api.Task, error) {
	task, err := s.svc.Update(ctx, id, input)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to update task")
		return nil, err
	}
	s.col.replaceByID(id, *task)
	return task, nil
}

// ChangeStatus moves a task to a new status, with the same cache
// contract as Update.
func (s *TasksStore) ChangeStatus(ctx context.Context, id, status string) (*api.Task, error) {
	task, err := s.svc.ChangeStatus(ctx, id, status)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to change task status")
		return nil, err
	}
	s.col.replaceByID(id, *task)
	return task, nil
}

// Delete removes a task from the backend and the cache.
func (s *TasksStore) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to delete task")
		return err
	}
	s.col.removeByID(id)
	return nil
}

// Reset clears the collection back to its initial state. Invoked by the
// session store on logout.
func (s *TasksStore) Reset() {
	s.col.reset()
}

// Tasks returns a copy of the cached collection.
func (s *TasksStore) Tasks() []api.Task { return s.col.snapshot() }

// Metadata returns the pagination metadata of the last fetch.
func (s *TasksStore) Metadata() api.Pagination { return s.col.pagination() }

// IsLoading reports whether a fetch is in flight.
func (s *TasksStore) IsLoading() bool { return s.col.isLoading() }

// IsInitialized reports whether at least one fetch has succeeded.
func (s *TasksStore) IsInitialized() bool { return s.col.isInitialized() }

// IsStale reports whether the cache is older than the TTL.
func (s *TasksStore) IsStale() bool { return s.col.isStale() }

// LastFetchedAt returns the time of the last successful fetch, zero if
// never fetched.
func (s *TasksStore) LastFetchedAt() time.Time { return s.col.lastFetched() }
