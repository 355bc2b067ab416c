package models

import "time"

type Project struct {
	ID          string
	Name        string
	Description string
	ClientID    *string
	// WorkingUserIDs has no ordering guarantee.
	WorkingUserIDs []string
	CreatedBy      *string
	CreatedAt      time.Time
}

// Member is the id/email pair rendered for project clients and working users.
type Member struct {
	ID    string
	Email string
}
