package film

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/abhishek622/filmrate/film/repository"
	"github.com/abhishek622/filmrate/film/pkg/model"
	"github.com/abhishek622/filmrate/pkg/date"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a referenced film, genre or rating does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned by like operations when the liking user does
// not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrValidation is returned when a film candidate fails a domain invariant.
// It is always wrapped with the failing reason.
var ErrValidation = errors.New("invalid film")

// earliestRelease is the historical origin of cinema; no film can precede
// it.
var earliestRelease = date.New(1895, 12, 28)

const maxDescriptionLen = 200

// Repository is the film store the controller orchestrates, including the
// genre and MPA reference reads.
type Repository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*model.Film, error)
	List(ctx context.Context) ([]model.Film, error)
	Put(ctx context.Context, f *model.Film) (int64, error)
	Update(ctx context.Context, f *model.Film) error
	AddLike(ctx context.Context, filmID, userID int64) error
	RemoveLike(ctx context.Context, filmID, userID int64) error
	Genres(ctx context.Context) ([]model.Genre, error)
	Genre(ctx context.Context, id int64) (*model.Genre, error)
	Mpas(ctx context.Context) ([]model.Mpa, error)
	Mpa(ctx context.Context, id int64) (*model.Mpa, error)
}

type userChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Controller defines a film service controller. Genre and MPA reference
// rows are immutable, so lookups go through a local cache consulted before
// the repository.
type Controller struct {
	repo   Repository
	users  userChecker
	logger *zap.Logger

	mu         sync.RWMutex
	genreCache map[int64]model.Genre
	mpaCache   map[int64]model.Mpa
}

// New creates a film service controller.
func New(repo Repository, users userChecker, logger *zap.Logger) *Controller {
	return &Controller{
		repo:       repo,
		users:      users,
		logger:     logger,
		genreCache: map[int64]model.Genre{},
		mpaCache:   map[int64]model.Mpa{},
	}
}

// AddFilm validates and persists a new film, returning the stored record
// with its assigned id. The genre list is de-duplicated and sorted by id
// before persisting.
func (c *Controller) AddFilm(ctx context.Context, f *model.Film) (*model.Film, error) {
	if err := validateFilm(f); err != nil {
		return nil, err
	}
	candidate := *f
	if err := c.resolveReferences(ctx, &candidate); err != nil {
		return nil, err
	}
	id, err := c.repo.Put(ctx, &candidate)
	if err != nil {
		return nil, err
	}
	c.logger.Info("film added", zap.Int64("id", id), zap.String("name", candidate.Name))
	return c.repo.Get(ctx, id)
}

// UpdateFilm validates and full-replaces an existing film record, including
// its genre assignments.
func (c *Controller) UpdateFilm(ctx context.Context, f *model.Film) (*model.Film, error) {
	if err := validateFilm(f); err != nil {
		return nil, err
	}
	ok, err := c.repo.Exists(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Warn("film not found", zap.Int64("id", f.ID))
		return nil, ErrNotFound
	}
	candidate := *f
	if err := c.resolveReferences(ctx, &candidate); err != nil {
		return nil, err
	}
	if err := c.repo.Update(ctx, &candidate); err != nil {
		return nil, err
	}
	c.logger.Info("film updated", zap.Int64("id", f.ID))
	return c.repo.Get(ctx, f.ID)
}

// GetFilm returns the film with the given id.
func (c *Controller) GetFilm(ctx context.Context, id int64) (*model.Film, error) {
	f, err := c.repo.Get(ctx, id)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return f, err
}

// ListFilms returns all films.
func (c *Controller) ListFilms(ctx context.Context) ([]model.Film, error) {
	return c.repo.List(ctx)
}

// AddLike records a like from a user on a film and returns the refreshed
// film. The user is checked before the film.
func (c *Controller) AddLike(ctx context.Context, filmID, userID int64) (*model.Film, error) {
	if err := c.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := c.repo.AddLike(ctx, filmID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.logger.Info("like added", zap.Int64("filmId", filmID), zap.Int64("userId", userID))
	return c.repo.Get(ctx, filmID)
}

// RemoveLike removes a user's like from a film and returns the refreshed
// film. Removing a like that is not there is a no-op, not an error.
func (c *Controller) RemoveLike(ctx context.Context, filmID, userID int64) (*model.Film, error) {
	if err := c.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := c.repo.RemoveLike(ctx, filmID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.logger.Info("like removed", zap.Int64("filmId", filmID), zap.Int64("userId", userID))
	return c.repo.Get(ctx, filmID)
}

// MostLiked returns up to count films ordered by descending like count.
// The sort is stable on like count alone, so ties keep the store's listing
// order.
func (c *Controller) MostLiked(ctx context.Context, count int) ([]model.Film, error) {
	films, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(films, func(i, j int) bool {
		return films[i].LikesCount() > films[j].LikesCount()
	})
	if count < len(films) {
		films = films[:count]
	}
	return films, nil
}

// ListGenres returns all genre reference rows.
func (c *Controller) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return c.repo.Genres(ctx)
}

// GetGenre looks up a genre by id, consulting the cache first.
func (c *Controller) GetGenre(ctx context.Context, id int64) (*model.Genre, error) {
	c.mu.RLock()
	g, ok := c.genreCache[id]
	c.mu.RUnlock()
	if ok {
		return &g, nil
	}
	got, err := c.repo.Genre(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.mu.Lock()
	c.genreCache[id] = *got
	c.mu.Unlock()
	return got, nil
}

// ListRatings returns all content-rating reference rows.
func (c *Controller) ListRatings(ctx context.Context) ([]model.Mpa, error) {
	return c.repo.Mpas(ctx)
}

// GetRating looks up a content rating by id, consulting the cache first.
func (c *Controller) GetRating(ctx context.Context, id int64) (*model.Mpa, error) {
	c.mu.RLock()
	m, ok := c.mpaCache[id]
	c.mu.RUnlock()
	if ok {
		return &m, nil
	}
	got, err := c.repo.Mpa(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.mu.Lock()
	c.mpaCache[id] = *got
	c.mu.Unlock()
	return got, nil
}

func (c *Controller) requireUser(ctx context.Context, id int64) error {
	ok, err := c.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// resolveReferences de-duplicates the genre list and replaces the mpa and
// genre entries with their full reference rows. Ids that do not resolve
// fail validation, mirroring the store's foreign keys.
func (c *Controller) resolveReferences(ctx context.Context, f *model.Film) error {
	mpa, err := c.GetRating(ctx, f.Mpa.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: unknown mpa id %d", ErrValidation, f.Mpa.ID)
		}
		return err
	}
	f.Mpa = mpa

	f.Genres = stripDuplicates(f.Genres)
	for i, g := range f.Genres {
		resolved, err := c.GetGenre(ctx, g.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: unknown genre id %d", ErrValidation, g.ID)
			}
			return err
		}
		f.Genres[i] = *resolved
	}
	return nil
}

// stripDuplicates sorts genres ascending by id and drops repeated ids.
func stripDuplicates(genres []model.Genre) []model.Genre {
	sorted := append([]model.Genre(nil), genres...)
	if len(sorted) < 2 {
		return sorted
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	out := sorted[:1]
	for _, g := range sorted[1:] {
		if g.ID != out[len(out)-1].ID {
			out = append(out, g)
		}
	}
	return out
}

func validateFilm(f *model.Film) error {
	if f.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(f.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxDescriptionLen)
	}
	if f.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if f.Mpa == nil {
		return fmt.Errorf("%w: mpa rating is required", ErrValidation)
	}
	if f.ReleaseDate.Before(earliestRelease) {
		return fmt.Errorf("%w: release date must not precede %s", ErrValidation, earliestRelease)
	}
	return nil
}
