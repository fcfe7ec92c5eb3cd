package model

import "time"

// DefaultSession is used when a caller does not name a session.
const DefaultSession = "default"

// Answer is one logged self-assessment response.
type Answer struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	SessionID string    `json:"session_id"`
}

// Edge is a consistency verdict between a newly ingested answer (Source) and
// an older one (Target).
type Edge struct {
	ID           string    `json:"id"`
	SourceID     string    `json:"source_id"`
	TargetID     string    `json:"target_id"`
	IsConsistent bool      `json:"is_consistent"`
	Explanation  string    `json:"explanation"`
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
}
