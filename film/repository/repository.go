package repository

import (
	"errors"

	"github.com/abhishek622/filmrate/film/pkg/model"
)

// ErrNotFound is returned when a requested film, genre or rating does not
// exist.
var ErrNotFound = errors.New("not found")

// SeedGenres returns the static genre reference rows every store starts
// with.
func SeedGenres() []model.Genre {
	return []model.Genre{
		{ID: 1, Name: "Comedy"},
		{ID: 2, Name: "Drama"},
		{ID: 3, Name: "Cartoon"},
		{ID: 4, Name: "Thriller"},
		{ID: 5, Name: "Documentary"},
		{ID: 6, Name: "Action"},
	}
}

// SeedMpas returns the static content-rating reference rows every store
// starts with.
func SeedMpas() []model.Mpa {
	return []model.Mpa{
		{ID: 1, Name: "G"},
		{ID: 2, Name: "PG"},
		{ID: 3, Name: "PG-13"},
		{ID: 4, Name: "R"},
		{ID: 5, Name: "NC-17"},
	}
}
