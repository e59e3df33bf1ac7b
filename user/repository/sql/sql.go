// Package sql implements the user repository on a relational engine.
// MySQL and SQLite share the DML; only the DDL differs per engine.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/abhishek622/filmrate/pkg/date"
	"github.com/abhishek622/filmrate/user/repository"
	"github.com/abhishek622/filmrate/user/pkg/model"
	"go.opentelemetry.io/otel"
)

const tracerID = "user-repository-sql"

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	user_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	email    TEXT NOT NULL,
	login    TEXT NOT NULL,
	name     TEXT NOT NULL,
	birthday TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS friends (
	user_id   INTEGER NOT NULL,
	friend_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, friend_id)
);`

const schemaMySQL = `
CREATE TABLE IF NOT EXISTS users (
	user_id  BIGINT AUTO_INCREMENT PRIMARY KEY,
	email    VARCHAR(255) NOT NULL,
	login    VARCHAR(255) NOT NULL,
	name     VARCHAR(255) NOT NULL,
	birthday VARCHAR(10)  NOT NULL
);
CREATE TABLE IF NOT EXISTS friends (
	user_id   BIGINT NOT NULL,
	friend_id BIGINT NOT NULL,
	PRIMARY KEY (user_id, friend_id)
);`

// Repository defines a relational user repository.
type Repository struct {
	db *sql.DB
}

// New creates a user repository on db, bootstrapping the schema for the
// given driver ("sqlite3" or "mysql").
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
			return nil, fmt.Errorf("bootstrap user schema: %w", err)
		}
	}
	return &Repository{db}, nil
}

// Exists reports whether a user with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Exists")
	defer span.End()

	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE user_id = ?", id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get retrieves a user by id with its friendship set composed from the
// friends relation.
func (r *Repository) Get(ctx context.Context, id int64) (*model.User, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Get")
	defer span.End()

	row := r.db.QueryRowContext(ctx,
		"SELECT user_id, email, login, name, birthday FROM users WHERE user_id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Friends, err = r.friendIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users in id order.
func (r *Repository) List(ctx context.Context) ([]model.User, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/List")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, email, login, name, birthday FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Friends, err = r.friendIDs(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Put inserts a new user record and returns the engine-assigned id.
func (r *Repository) Put(ctx context.Context, u *model.User) (int64, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Put")
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, login, name, birthday) VALUES (?, ?, ?, ?)",
		u.Email, u.Login, u.Name, u.Birthday.String())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update full-replaces the stored record's fields, keeping its edges.
func (r *Repository) Update(ctx context.Context, u *model.User) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/Update")
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET email = ?, login = ?, name = ?, birthday = ? WHERE user_id = ?",
		u.Email, u.Login, u.Name, u.Birthday.String(), u.ID)
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
	return nil
}

// AddFriendEdge records the directed edge id -> friendID. Re-adding an
// existing edge is a no-op.
func (r *Repository) AddFriendEdge(ctx context.Context, id, friendID int64) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddFriendEdge")
	defer span.End()

	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	var n int
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM friends WHERE user_id = ? AND friend_id = ?", id, friendID).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO friends (user_id, friend_id) VALUES (?, ?)", id, friendID)
	return err
}

// RemoveFriendEdge deletes the directed edge id -> friendID. Removing an
// absent edge is a no-op.
func (r *Repository) RemoveFriendEdge(ctx context.Context, id, friendID int64) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/RemoveFriendEdge")
	defer span.End()

	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	_, err = r.db.ExecContext(ctx,
		"DELETE FROM friends WHERE user_id = ? AND friend_id = ?", id, friendID)
	return err
}

func (r *Repository) friendIDs(ctx context.Context, id int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT friend_id FROM friends WHERE user_id = ? ORDER BY friend_id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var fid int64
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		ids = append(ids, fid)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var birthday string
	if err := s.Scan(&u.ID, &u.Email, &u.Login, &u.Name, &birthday); err != nil {
		return nil, err
	}
	d, err := date.Parse(birthday)
	if err != nil {
		return nil, err
	}
	u.Birthday = d
	return &u, nil
}
