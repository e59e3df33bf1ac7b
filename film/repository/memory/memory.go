package memory

import (
	"context"
	"sync"

	"github.com/abhishek622/filmrate/film/repository"
	"github.com/abhishek622/filmrate/film/pkg/model"
	"go.opentelemetry.io/otel"
)

// Repository defines a memory film repository. Films and like edges are
// kept in insertion order; genre and MPA reference data is seeded at
// construction and read-only afterwards.
type Repository struct {
	sync.RWMutex
	films  map[int64]model.Film
	order  []int64
	likes  map[int64][]int64
	genres map[int64][]model.Genre
	nextID int64

	refGenres []model.Genre
	refMpas   []model.Mpa
}

const tracerID = "film-repository-memory"

// New creates a new memory film repository seeded with the standard
// reference rows.
func New() *Repository {
	return &Repository{
		films:     map[int64]model.Film{},
		likes:     map[int64][]int64{},
		genres:    map[int64][]model.Genre{},
		refGenres: repository.SeedGenres(),
		refMpas:   repository.SeedMpas(),
	}
}

// Exists reports whether a film with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Exists")
	defer span.End()

	_, ok := r.films[id]
	return ok, nil
}

// Get retrieves a film by id with its like set and genres composed.
func (r *Repository) Get(ctx context.Context, id int64) (*model.Film, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Get")
	defer span.End()

	f, ok := r.films[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.compose(f)
	return &out, nil
}

// List returns all films in insertion order.
func (r *Repository) List(ctx context.Context) ([]model.Film, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/List")
	defer span.End()

	out := make([]model.Film, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.compose(r.films[id]))
	}
	return out, nil
}

func (r *Repository) compose(f model.Film) model.Film {
	f.Likes = append([]int64(nil), r.likes[f.ID]...)
	f.Genres = append([]model.Genre(nil), r.genres[f.ID]...)
	return f
}

// Put inserts a new film record and returns the assigned id. Like edges
// are owned by the relation; any Likes on the candidate are ignored.
func (r *Repository) Put(ctx context.Context, f *model.Film) (int64, error) {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Put")
	defer span.End()

	r.nextID++
	stored := *f
	stored.ID = r.nextID
	stored.Likes = nil
	r.genres[stored.ID] = append([]model.Genre(nil), f.Genres...)
	stored.Genres = nil
	r.films[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return stored.ID, nil
}

// Update full-replaces the stored record's fields and genre assignments,
// keeping its like edges.
func (r *Repository) Update(ctx context.Context, f *model.Film) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Update")
	defer span.End()

	if _, ok := r.films[f.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *f
	stored.Likes = nil
	r.genres[f.ID] = append([]model.Genre(nil), f.Genres...)
	stored.Genres = nil
	r.films[f.ID] = stored
	return nil
}

// AddLike records that a user liked a film. Liking twice is a no-op.
func (r *Repository) AddLike(ctx context.Context, filmID, userID int64) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddLike")
	defer span.End()

	if _, ok := r.films[filmID]; !ok {
		return repository.ErrNotFound
	}
	for _, u := range r.likes[filmID] {
		if u == userID {
			return nil
		}
	}
	r.likes[filmID] = append(r.likes[filmID], userID)
	return nil
}

// RemoveLike deletes a user's like from a film. Removing an absent like is
// a no-op.
func (r *Repository) RemoveLike(ctx context.Context, filmID, userID int64) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/RemoveLike")
	defer span.End()

	if _, ok := r.films[filmID]; !ok {
		return repository.ErrNotFound
	}
	edges := r.likes[filmID]
	for i, u := range edges {
		if u == userID {
			r.likes[filmID] = append(edges[:i], edges[i+1:]...)
			return nil
		}
	}
	return nil
}

// Genres returns all genre reference rows.
func (r *Repository) Genres(ctx context.Context) ([]model.Genre, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Genres")
	defer span.End()

	return append([]model.Genre(nil), r.refGenres...), nil
}

// Genre looks up a genre reference row by id.
func (r *Repository) Genre(ctx context.Context, id int64) (*model.Genre, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Genre")
	defer span.End()

	for _, g := range r.refGenres {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Mpas returns all content-rating reference rows.
func (r *Repository) Mpas(ctx context.Context) ([]model.Mpa, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Mpas")
	defer span.End()

	return append([]model.Mpa(nil), r.refMpas...), nil
}

// Mpa looks up a content-rating reference row by id.
func (r *Repository) Mpa(ctx context.Context, id int64) (*model.Mpa, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Mpa")
	defer span.End()

	for _, m := range r.refMpas {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}
