package model

import "time"

// User is an authenticated account. In the local backend the password hash
// lives alongside the registry entry; the remote backend never sees a hash.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
