package model

import "github.com/abhishek622/filmrate/pkg/date"

// Film defines a catalog film. Likes holds the ids of users who liked the
// film and is composed by the store on read; popularity is always derived
// from its size.
type Film struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ReleaseDate date.Date `json:"releaseDate"`
	Duration    int       `json:"duration"`
	Mpa         *Mpa      `json:"mpa"`
	Genres      []Genre   `json:"genres"`
	Likes       []int64   `json:"likes"`
}

// LikesCount returns the film's popularity score.
func (f *Film) LikesCount() int {
	return len(f.Likes)
}

// Genre is a static reference record assigned to films.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Mpa is a static content-rating reference record.
type Mpa struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
