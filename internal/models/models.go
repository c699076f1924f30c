package models

// User is the only entity the service keeps.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Users is always serialized as a JSON array, never as null.
type Users []User

type UserRequest struct {
	Name string `json:"name" validate:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SeedUserNames are loaded into the store when seeding is enabled.
var SeedUserNames = []string{
	"Rava",
	"Anvar",
	"Ruslan",
	"Rahmatillo",
}
