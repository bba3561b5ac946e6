package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is one row of the waitlist table. ID and CreatedAt are assigned by
// the store on insert.
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Mode tells whether a subscription reached the store.
type Mode string

const (
	ModeStored      Mode = "stored"
	ModeDevelopment Mode = "development"
)

// SubscribeResult is what the service hands back on success.
type SubscribeResult struct {
	Mode       Mode
	Email      string
	Subscriber *Subscriber
}

// SubscribeResponse is the 200 body. Data holds the inserted rows, or the
// submitted email when no store is configured.
type SubscribeResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Mode    Mode   `json:"mode,omitempty"`
}

// DevelopmentData is Data for a bypassed insert.
type DevelopmentData struct {
	Email string `json:"email"`
}

// SubscribeRequest is the decoded POST body.
type SubscribeRequest struct {
	Email string `json:"email"`
}
