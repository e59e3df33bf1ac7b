package memory

import (
	"context"
	"sync"

	"github.com/abhishek622/filmrate/user/repository"
	"github.com/abhishek622/filmrate/user/pkg/model"
	"go.opentelemetry.io/otel"
)

// Repository defines a memory user repository. User records and friendship
// edges are kept in insertion order so listing and relation iteration are
// deterministic within a run. Id assignment happens under the repository
// lock.
type Repository struct {
	sync.RWMutex
	users   map[int64]model.User
	order   []int64
	friends map[int64][]int64
	nextID  int64
}

const tracerID = "user-repository-memory"

// New creates a new memory user repository.
func New() *Repository {
	return &Repository{
		users:   map[int64]model.User{},
		friends: map[int64][]int64{},
	}
}

// Exists reports whether a user with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Exists")
	defer span.End()

	_, ok := r.users[id]
	return ok, nil
}

// Get retrieves a user by id with its friendship set composed.
func (r *Repository) Get(ctx context.Context, id int64) (*model.User, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Get")
	defer span.End()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	out.Friends = append([]int64(nil), r.friends[id]...)
	return &out, nil
}

// List returns all users in insertion order.
func (r *Repository) List(ctx context.Context) ([]model.User, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/List")
	defer span.End()

	out := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		u.Friends = append([]int64(nil), r.friends[id]...)
		out = append(out, u)
	}
	return out, nil
}

// Put inserts a new user record and returns the assigned id. Friendship
// edges are owned by the relation, not the record, so any Friends on the
// candidate are ignored.
func (r *Repository) Put(ctx context.Context, u *model.User) (int64, error) {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Put")
	defer span.End()

	r.nextID++
	stored := *u
	stored.ID = r.nextID
	stored.Friends = nil
	r.users[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return stored.ID, nil
}

// Update full-replaces the stored record's fields, keeping its edges.
func (r *Repository) Update(ctx context.Context, u *model.User) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Update")
	defer span.End()

	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *u
	stored.Friends = nil
	r.users[u.ID] = stored
	return nil
}

// AddFriendEdge records the directed edge id -> friendID. Adding an edge
// that is already present is a no-op.
func (r *Repository) AddFriendEdge(ctx context.Context, id, friendID int64) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddFriendEdge")
	defer span.End()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, f := range r.friends[id] {
		if f == friendID {
			return nil
		}
	}
	r.friends[id] = append(r.friends[id], friendID)
	return nil
}

// RemoveFriendEdge deletes the directed edge id -> friendID. Removing an
// absent edge is a no-op.
func (r *Repository) RemoveFriendEdge(ctx context.Context, id, friendID int64) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/RemoveFriendEdge")
	defer span.End()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	edges := r.friends[id]
	for i, f := range edges {
		if f == friendID {
			r.friends[id] = append(edges[:i], edges[i+1:]...)
			return nil
		}
	}
	return nil
}
