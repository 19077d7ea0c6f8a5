package store

import "time"

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft is a persisted shortage form. Rows holds the transport-encoded row
// list exactly as stored; decoding to the structured model happens at the
// synchronizer boundary.
type Draft struct {
	ID         string
	OwnerID    string
	BranchName string
	Department string
	EnteredBy  string
	Date       string
	Rows       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
