// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. Secrets are never serialised.
type User struct {
	ID             string    `json:"_id"`
	UserName       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	ProfilePicture string    `json:"profilePicture"`
	PasswordHash   []byte    `json:"-"`
	RefreshToken   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
