package domain

import (
	"time"
)

// RoleMember is the role every user gets at signup. Task permissions derive
// from the caller's relationship to the task, not from this role.
const RoleMember = "member"

// DefaultProfilePictureURL is used when a user has not set a picture.
const DefaultProfilePictureURL = "https://cdn-icons-png.flaticon.com/512/10337/10337609.png"

// DefaultTeams returns the team list every new user starts with. A fresh
// slice is returned each call so profile updates never share backing arrays.
func DefaultTeams() []string {
	return []string{"default"}
}

// DefaultSkills returns the skill list every new user starts with.
func DefaultSkills() []string {
	return []string{"general"}
}

// User represents a registered user.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	Teams             []string  `json:"teams"`
	Skills            []string  `json:"skills"`
	Phone             string    `json:"phone,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserRef is the public projection of a user embedded in task listings:
// enough to render a creator or assignee, never the password hash.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Ref returns the public projection of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// TokenPair holds the access/refresh token pair issued at signup and login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
