package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/client-go/internal/api"
	"github.com/taskboard/client-go/internal/metrics"
)

// UsersStore caches the user collection. New users are appended,
// keeping insertion order.
type UsersStore struct {
	svc     *api.UsersService
	log     zerolog.Logger
	metrics *metrics.Metrics
	col     collection[api.User]
}

// NewUsersStore creates the user store.
func NewUsersStore(svc *api.UsersService, opts ...Option) *UsersStore {
	o := applyOptions(opts)
	return &UsersStore{
		svc:     svc,
		log:     o.log,
		metrics: o.metrics,
		col:     newCollection[api.User](o.ttl, o.now),
	}
}

// Fetch returns the cached users, going to the backend only when
// forced, uninitialized, stale, or given explicit filter params.
func (s *UsersStore) Fetch(ctx context.Context, force bool, params *api.ListParams) ([]api.User, error) {
	if !s.col.shouldFetch(force, params != nil) {
		s.metrics.RecordCacheHit("users")
		return s.col.snapshot(), nil
	}
	s.metrics.RecordCacheMiss("users")

	s.col.setLoading(true)
	defer s.col.setLoading(false)

	page, err := s.svc.List(ctx, params)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch users")
		return nil, err
	}

	s.col.replaceAll(page.Users, page.Metadata)
	return s.col.snapshot(), nil
}

// Refresh forces a fetch regardless of staleness.
func (s *UsersStore) Refresh(ctx context.Context) ([]api.User, error) {
	return s.Fetch(ctx, true, nil)
}

// Create creates a user and appends it to the cached collection.
func (s *UsersStore) Create(ctx context.Context, input api.CreateUserInput) (*api.User, error) {
	user, err := s.svc.Create(ctx, input)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create user")
		return nil, err
	}
	s.col.insert(*user, false)
	return user, nil
}

// Update updates a user and replaces it in place in the cache. If the
// id is not cached locally the result is dropped, not inserted.
func (s *UsersStore) Update(ctx context.Context, id string, input api.UpdateUserInput) (*api.User, error) {
	user, err := s.svc.Update(ctx, id, input)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, err
	}
	s.col.replaceByID(id, *user)
	return user, nil
}

// Delete removes a user from the backend and the cache.
func (s *UsersStore) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return err
	}
	s.col.removeByID(id)
	return nil
}

// ChangePassword sets a new password for a user. The cached record is
// unchanged since the password is never part of it.
func (s *UsersStore) ChangePassword(ctx context.Context, id, newPassword string) error {
	if err := s.svc.ChangePassword(ctx, id, newPassword); err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("failed to change password")
		return err
	}
	return nil
}

// Reset clears the collection back to its initial state. Invoked by the
// session store on logout.
func (s *UsersStore) Reset() {
	s.col.reset()
}

// Users returns a copy of the cached collection.
func (s *UsersStore) Users() []api.User { return s.col.snapshot() }

// Metadata returns the pagination metadata of the last fetch.
func (s *UsersStore) Metadata() api.Pagination { return s.col.pagination() }

// IsLoading reports whether a fetch is in flight.
func (s *UsersStore) IsLoading() bool { return s.col.isLoading() }

// IsInitialized reports whether at least one fetch has succeeded.
func (s *UsersStore) IsInitialized() bool { return s.col.isInitialized() }

// IsStale reports whether the cache is older than the TTL.
func (s *UsersStore) IsStale() bool { return s.col.isStale() }

// LastFetchedAt returns the time of the last successful fetch, zero if
// never fetched.
func (s *UsersStore) LastFetchedAt() time.Time { return s.col.lastFetched() }
