package models

import "time"

// Client is a customer that projects are delivered for.
type Client struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
	// CreatedBy is the creating user's id. Nil once that user is deleted.
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
