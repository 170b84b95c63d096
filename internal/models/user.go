package models

// User represents a user account in the system.
type User struct {
	ID           int64  `json:"-"` // storage row id
	UserID       int64  `json:"userId"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose this to the client
}
