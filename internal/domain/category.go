package domain

import "time"

// Category represents a menu category. Name is unique.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     *Image    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
