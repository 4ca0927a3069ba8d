package core

import (
	"context"
	"time"
)

// ConnectionDetails is everything a participant needs to join a room.
type ConnectionDetails struct {
	ServerURL        string    `json:"server_url"`
	RoomName         string    `json:"room_name"`
	ParticipantToken string    `json:"participant_token"`
	Identity         string    `json:"identity"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Valid reports whether the detail can still be used to join.
func (d ConnectionDetails) Valid(now time.Time) bool {
	return d.ParticipantToken != "" && now.Before(d.ExpiresAt)
}

// ConnectionProvider issues room connection details.
//
// Refresh always performs a new fetch; ExistingOrRefresh returns the
// memoized detail while it is valid. A single attempt per call, failures
// propagate to the caller.
type ConnectionProvider interface {
	Refresh(ctx context.Context) (ConnectionDetails, error)
	ExistingOrRefresh(ctx context.Context) (ConnectionDetails, error)
}
