// internal/domain/models/user.go
package models

import (
	"time"
)

// User is a directory profile. Identity is the email issued by the external
// identity provider; there is no internal numeric id.
//
// NOTE:
//   - Users are upserted on every successful sign-in and never deleted here.
//   - PasswordHash is only set for credentials sign-up.
type User struct {
	Email        string    `bson:"_id" json:"email"`
	Name         string    `bson:"name" json:"name"`
	NameCI       string    `bson:"name_ci" json:"-"` // folded for exact case-insensitive lookup
	Image        string    `bson:"image,omitempty" json:"image,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	LastLogin    time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Profile is the public slice of a User.
type Profile struct {
	Email string `bson:"_id" json:"email"`
	Name  string `bson:"name" json:"name"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	return Profile{Email: u.Email, Name: u.Name, Image: u.Image}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	Email string
	Name  string
	Image string
}

// DisplayName returns the actor's snapshot name.
func (a Actor) DisplayName() string {
	return DisplayName(a.Email, a.Name)
}
