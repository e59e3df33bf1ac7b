package model

import "github.com/abhishek622/filmrate/pkg/date"

// User defines a catalog user. Friends holds the ids of users this user is
// friends with; it is composed by the store on read, never written directly.
type User struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	Login    string    `json:"login"`
	Name     string    `json:"name"`
	Birthday date.Date `json:"birthday"`
	Friends  []int64   `json:"friends"`
}
