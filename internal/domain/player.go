package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 36

var (
	ErrNameTooLong = errors.New("display name too long")
	ErrNameEmpty   = errors.New("display name empty")
)

// PlayerID is the participant identity used inside the room.
type PlayerID string

// Player is the human participant joining a game room.
type Player struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"display_name"`
}

// NewPlayer derives a unique room identity from the display name so that
// the same person can hold sessions in several rooms at once.
func NewPlayer(displayName string) (*Player, error) {
	if len(displayName) == 0 {
		return nil, ErrNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	id := PlayerID(fmt.Sprintf("%s__%s", displayName, uuid.NewString()[:8]))
	return &Player{ID: id, DisplayName: displayName}, nil
}

func (p *Player) SetDisplayName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	p.DisplayName = name
	return nil
}
