package domain

import "time"

// RoleAdmin is the only privileged role.
const RoleAdmin = "admin"

// Account is a registered storefront user together with the profile fields
// captured at signup.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor is the identity behind a valid session.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"fullName"`
}
