// Package sql implements the film repository on a relational engine.
// MySQL and SQLite share the DML; only the DDL differs per engine.
// Reference rows for genres and MPA ratings are seeded on first
// bootstrap.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/abhishek622/filmrate/film/repository"
	"github.com/abhishek622/filmrate/film/pkg/model"
	"github.com/abhishek622/filmrate/pkg/date"
	"go.opentelemetry.io/otel"
)

const tracerID = "film-repository-sql"

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS mpa (
	mpa_id   INTEGER PRIMARY KEY,
	mpa_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS genres (
	genre_id   INTEGER PRIMARY KEY,
	genre_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS films (
	film_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	film_name    TEXT NOT NULL,
	description  TEXT NOT NULL,
	release_date TEXT NOT NULL,
	duration     INTEGER NOT NULL,
	mpa_id       INTEGER NOT NULL REFERENCES mpa (mpa_id)
);
CREATE TABLE IF NOT EXISTS film_genres (
	film_id  INTEGER NOT NULL,
	genre_id INTEGER NOT NULL,
	PRIMARY KEY (film_id, genre_id)
);
CREATE TABLE IF NOT EXISTS likes (
	film_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (film_id, user_id)
);`

const schemaMySQL = `
CREATE TABLE IF NOT EXISTS mpa (
	mpa_id   BIGINT PRIMARY KEY,
	mpa_name VARCHAR(16) NOT NULL
);
CREATE TABLE IF NOT EXISTS genres (
	genre_id   BIGINT PRIMARY KEY,
	genre_name VARCHAR(64) NOT NULL
);
CREATE TABLE IF NOT EXISTS films (
	film_id      BIGINT AUTO_INCREMENT PRIMARY KEY,
	film_name    VARCHAR(255) NOT NULL,
	description  VARCHAR(200) NOT NULL,
	release_date VARCHAR(10)  NOT NULL,
	duration     INT NOT NULL,
	mpa_id       BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS film_genres (
	film_id  BIGINT NOT NULL,
	genre_id BIGINT NOT NULL,
	PRIMARY KEY (film_id, genre_id)
);
CREATE TABLE IF NOT EXISTS likes (
	film_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	PRIMARY KEY (film_id, user_id)
);`

// Repository defines a relational film repository.
type Repository struct {
	db *sql.DB
}

// New creates a film repository on db, bootstrapping the schema for the
// given driver ("sqlite3" or "mysql") and seeding the reference tables
// when they are empty.
func New(db *sql.DB, driver string) (*Repository, error) {
	schema := schemaMySQL
	if driver == "sqlite3" {
		schema = schemaSQLite
	}
	// The MySQL driver rejects multi-statement scripts, so run the DDL
	// one statement at a time.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("bootstrap film schema: %w", err)
		}
	}
	r := &Repository{db}
	if err := r.seedReferenceData(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) seedReferenceData() error {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM genres").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, g := range repository.SeedGenres() {
			if _, err := r.db.Exec(
				"INSERT INTO genres (genre_id, genre_name) VALUES (?, ?)", g.ID, g.Name); err != nil {
				return err
			}
		}
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM mpa").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, m := range repository.SeedMpas() {
			if _, err := r.db.Exec(
				"INSERT INTO mpa (mpa_id, mpa_name) VALUES (?, ?)", m.ID, m.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Exists reports whether a film with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Exists")
	defer span.End()

	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM films WHERE film_id = ?", id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get retrieves a film by id with its like set and genres composed from
// the edge tables.
func (r *Repository) Get(ctx context.Context, id int64) (*model.Film, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Get")
	defer span.End()

	row := r.db.QueryRowContext(ctx, `
		SELECT f.film_id, f.film_name, f.description, f.release_date, f.duration, m.mpa_id, m.mpa_name
		FROM films f JOIN mpa m ON m.mpa_id = f.mpa_id
		WHERE f.film_id = ?`, id)
	f, err := scanFilm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.composeRelations(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns all films in id order.
func (r *Repository) List(ctx context.Context) ([]model.Film, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/List")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT f.film_id, f.film_name, f.description, f.release_date, f.duration, m.mpa_id, m.mpa_name
		FROM films f JOIN mpa m ON m.mpa_id = f.mpa_id
		ORDER BY f.film_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var films []model.Film
	for rows.Next() {
		f, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range films {
		if err := r.composeRelations(ctx, &films[i]); err != nil {
			return nil, err
		}
	}
	return films, nil
}

// Put inserts a new film record with its genre assignments and returns the
// engine-assigned id.
func (r *Repository) Put(ctx context.Context, f *model.Film) (int64, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Put")
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO films (film_name, description, release_date, duration, mpa_id) VALUES (?, ?, ?, ?, ?)",
		f.Name, f.Description, f.ReleaseDate.String(), f.Duration, f.Mpa.ID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := r.insertGenres(ctx, id, f.Genres); err != nil {
		return 0, err
	}
	return id, nil
}

// Update full-replaces the stored record's fields and genre assignments,
// keeping its like edges.
func (r *Repository) Update(ctx context.Context, f *model.Film) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Update")
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		"UPDATE films SET film_name = ?, description = ?, release_date = ?, duration = ?, mpa_id = ? WHERE film_id = ?",
		f.Name, f.Description, f.ReleaseDate.String(), f.Duration, f.Mpa.ID, f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM film_genres WHERE film_id = ?", f.ID); err != nil {
		return err
	}
	return r.insertGenres(ctx, f.ID, f.Genres)
}

// AddLike records that a user liked a film. Liking twice is a no-op.
func (r *Repository) AddLike(ctx context.Context, filmID, userID int64) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddLike")
	defer span.End()

	ok, err := r.Exists(ctx, filmID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	var n int
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE film_id = ? AND user_id = ?", filmID, userID).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO likes (film_id, user_id) VALUES (?, ?)", filmID, userID)
	return err
}

// RemoveLike deletes a user's like from a film. Removing an absent like is
// a no-op.
func (r *Repository) RemoveLike(ctx context.Context, filmID, userID int64) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/RemoveLike")
	defer span.End()

	ok, err := r.Exists(ctx, filmID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	_, err = r.db.ExecContext(ctx,
		"DELETE FROM likes WHERE film_id = ? AND user_id = ?", filmID, userID)
	return err
}

// Genres returns all genre reference rows.
func (r *Repository) Genres(ctx context.Context) ([]model.Genre, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Genres")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		"SELECT genre_id, genre_name FROM genres ORDER BY genre_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// Genre looks up a genre reference row by id.
func (r *Repository) Genre(ctx context.Context, id int64) (*model.Genre, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Genre")
	defer span.End()

	var g model.Genre
	err := r.db.QueryRowContext(ctx,
		"SELECT genre_id, genre_name FROM genres WHERE genre_id = ?", id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Mpas returns all content-rating reference rows.
func (r *Repository) Mpas(ctx context.Context) ([]model.Mpa, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Mpas")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		"SELECT mpa_id, mpa_name FROM mpa ORDER BY mpa_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mpas []model.Mpa
	for rows.Next() {
		var m model.Mpa
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		mpas = append(mpas, m)
	}
	return mpas, rows.Err()
}

// Mpa looks up a content-rating reference row by id.
func (r *Repository) Mpa(ctx context.Context, id int64) (*model.Mpa, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Mpa")
	defer span.End()

	var m model.Mpa
	err := r.db.QueryRowContext(ctx,
		"SELECT mpa_id, mpa_name FROM mpa WHERE mpa_id = ?", id).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) insertGenres(ctx context.Context, filmID int64, genres []model.Genre) error {
	for _, g := range genres {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO film_genres (film_id, genre_id) VALUES (?, ?)", filmID, g.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) composeRelations(ctx context.Context, f *model.Film) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM likes WHERE film_id = ? ORDER BY user_id", f.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return err
		}
		f.Likes = append(f.Likes, uid)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	genreRows, err := r.db.QueryContext(ctx, `
		SELECT g.genre_id, g.genre_name
		FROM film_genres fg JOIN genres g ON g.genre_id = fg.genre_id
		WHERE fg.film_id = ?
		ORDER BY g.genre_id`, f.ID)
	if err != nil {
		return err
	}
	defer genreRows.Close()
	for genreRows.Next() {
		var g model.Genre
		if err := genreRows.Scan(&g.ID, &g.Name); err != nil {
			return err
		}
		f.Genres = append(f.Genres, g)
	}
	return genreRows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFilm(s scanner) (*model.Film, error) {
	var f model.Film
	var m model.Mpa
	var release string
	if err := s.Scan(&f.ID, &f.Name, &f.Description, &release, &f.Duration, &m.ID, &m.Name); err != nil {
		return nil, err
	}
	d, err := date.Parse(release)
	if err != nil {
		return nil, err
	}
	f.ReleaseDate = d
	f.Mpa = &m
	return &f, nil
}
