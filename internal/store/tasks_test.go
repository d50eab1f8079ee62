package store_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/client-go/internal/api"
	"github.com/taskboard/client-go/internal/store"
	"github.com/taskboard/client-go/pkg/testutil"
)

type backendToken struct{}

func (backendToken) Token() string { return testutil.Token }

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTasksStore(t *testing.T, opts ...store.Option) (*testutil.Backend, *store.TasksStore, *fakeClock) {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: backend.URL()})
	require.NoError(t, err)
	client.BindSession(backendToken{}, nil)

	clock := newFakeClock()
	opts = append([]store.Option{store.WithClock(clock.Now), store.WithTTL(10 * time.Second)}, opts...)
	return backend, store.NewTasksStore(api.NewTasksService(client), opts...), clock
}

func TestTasksStore_FetchCachesWithinTTL(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	first, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, s.IsInitialized())
	assert.False(t, s.IsStale())

	second, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.Requests("GET /tasks"), "second fetch within TTL must not hit the backend")
}

func TestTasksStore_StalenessWindow(t *testing.T) {
	backend, s, clock := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	assert.False(t, s.IsStale())

	clock.Advance(10*time.Second + time.Millisecond)
	assert.True(t, s.IsStale())

	_, err = s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Requests("GET /tasks"), "stale cache must trigger a refetch")
}

func TestTasksStore_ForceBypassesCache(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	_, err = s.Fetch(ctx, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Requests("GET /tasks"))
}

func TestTasksStore_ParamsBypassCache(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	_, err = s.Fetch(ctx, false, &api.ListParams{Search: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Requests("GET /tasks"))
}

func TestTasksStore_Refresh(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Requests("GET /tasks"))
}

func TestTasksStore_FetchFailureKeepsCollection(t *testing.T) {
	backend, s, clock := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	backend.FailNext(http.StatusInternalServerError, 1)

	_, err = s.Fetch(ctx, false, nil)
	require.Error(t, err)
	assert.True(t, api.IsServerError(err))
	assert.Len(t, s.Tasks(), 1, "failed fetch must leave the previous collection untouched")
	assert.False(t, s.IsLoading(), "isLoading must be reset after a failed fetch")
}

func TestTasksStore_CreatePrepends(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "old", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	created, err := s.Create(ctx, api.CreateTaskInput{Title: "new", Status: api.StatusPending})
	require.NoError(t, err)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, created.ID, tasks[0].ID, "tasks store prepends new records")
}

func TestTasksStore_CreateFailureLeavesCollection(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	backend.FailNext(http.StatusBadRequest, 1)
	_, err = s.Create(ctx, api.CreateTaskInput{})
	require.Error(t, err)
	assert.Empty(t, s.Tasks())
}

func TestTasksStore_UpdateReplacesInPlace(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(
		map[string]any{"id": "t1", "title": "a", "status": "pending"},
		map[string]any{"id": "t2", "title": "b", "status": "pending"},
		map[string]any{"id": "t3", "title": "c", "status": "pending"},
	)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	updated, err := s.Update(ctx, "t2", api.UpdateTaskInput{Title: "b2"})
	require.NoError(t, err)
	assert.Equal(t, "b2", updated.Title)

	tasks := s.Tasks()
	require.Len(t, tasks, 3, "update must not change collection length")
	assert.Equal(t, "t2", tasks[1].ID, "updated record keeps its position")
	assert.Equal(t, "b2", tasks[1].Title)
	assert.Equal(t, "a", tasks[0].Title, "other records untouched")
}

func TestTasksStore_UpdateMissIsNoop(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	// The record exists on the backend but not in the local cache.
	backend.SeedTasks(map[string]any{"id": "t9", "title": "remote only", "status": "pending"})

	updated, err := s.Update(context.Background(), "t9", api.UpdateTaskInput{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title, "the server result is still returned")
	assert.Empty(t, s.Tasks(), "a cache miss drops the result instead of inserting it")
}

func TestTasksStore_ChangeStatus(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	moved, err := s.ChangeStatus(ctx, "t1", api.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, moved.Status)
	assert.Equal(t, api.StatusCompleted, s.Tasks()[0].Status)
}

func TestTasksStore_DeleteRemovesExactlyOne(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(
		map[string]any{"id": "t1", "title": "a", "status": "pending"},
		map[string]any{"id": "t2", "title": "b", "status": "pending"},
	)
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "t1"))
	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "t2", tasks[0].ID)
}

func TestTasksStore_DeleteFailureKeepsCollection(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)

	backend.FailNext(http.StatusInternalServerError, 1)
	require.Error(t, s.Delete(ctx, "t1"))
	assert.Len(t, s.Tasks(), 1)
}

func TestTasksStore_Reset(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"id": "t1", "title": "a", "status": "pending"})
	ctx := context.Background()

	_, err := s.Fetch(ctx, false, nil)
	require.NoError(t, err)
	require.True(t, s.IsInitialized())

	s.Reset()
	assert.Empty(t, s.Tasks())
	assert.False(t, s.IsInitialized())
	assert.False(t, s.IsLoading())
	assert.True(t, s.LastFetchedAt().IsZero())
	assert.Equal(t, api.Pagination{}, s.Metadata())
}

func TestTasksStore_NormalizesAlternateIDs(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(map[string]any{"_id": "alt-1", "title": "a", "status": "pending"})

	tasks, err := s.Fetch(context.Background(), false, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "alt-1", tasks[0].ID)
}

func TestTasksStore_MetadataMirrorsLastFetch(t *testing.T) {
	backend, s, _ := newTasksStore(t)
	backend.SeedTasks(
		map[string]any{"id": "t1", "title": "a", "status": "pending"},
		map[string]any{"id": "t2", "title": "b", "status": "pending"},
		map[string]any{"id": "t3", "title": "c", "status": "pending"},
	)

	_, err := s.Fetch(context.Background(), false, &api.ListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)

	meta := s.Metadata()
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 2, meta.PageSize)
	assert.Equal(t, 3, meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)
}
