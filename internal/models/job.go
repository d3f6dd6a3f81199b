package models

import "time"

// Job is the ledger record of one generation request
type Job struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	CoupleName  string    `json:"couple_name"`
	AppName     string    `json:"app_name,omitempty"`
	ArchivePath string    `json:"archive_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Status is the lifecycle stage of a generation
type Status string

const (
	StatusCreated    Status = "created"
	StatusCopying    Status = "copying"
	StatusRewriting  Status = "rewriting"
	StatusArchiving  Status = "archiving"
	StatusDelivering Status = "delivering"
	StatusCleaned    Status = "cleaned"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	return s == StatusCleaned || s == StatusFailed
}

// ParseStatus maps a user supplied name onto a Status.
func ParseStatus(name string) (Status, bool) {
	switch s := Status(name); s {
	case StatusCreated, StatusCopying, StatusRewriting, StatusArchiving,
		StatusDelivering, StatusCleaned, StatusFailed:
		return s, true
	}
	return "", false
}
