// Package token implements the connection detail provider on top of the
// LiveKit access token scheme.
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/core"
)

// refreshSkew forces a refresh shortly before the token actually expires
// so a caller never joins with a token about to die.
const refreshSkew = time.Minute

// pushToTalkAttr marks the participant as using the push-to-talk battle
// protocol. Agents read it to pick the turn-taking mode.
const pushToTalkAttr = "push-to-talk"

type Minter struct {
	ServerURL string
	APIKey    string
	APISecret string
	TTL       time.Duration
}

// Mint issues a join token for one identity in one room.
func (m Minter) Mint(identity, displayName, roomName string) (core.ConnectionDetails, error) {
	at := auth.NewAccessToken(m.APIKey, m.APISecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(displayName).
		SetAttributes(map[string]string{pushToTalkAttr: "1"}).
		SetValidFor(m.TTL)

	jwt, err := at.ToJWT()
	if err != nil {
		return core.ConnectionDetails{}, fmt.Errorf("mint access token: %w", err)
	}
	return core.ConnectionDetails{
		ServerURL:        m.ServerURL,
		RoomName:         roomName,
		ParticipantToken: jwt,
		Identity:         identity,
		ExpiresAt:        time.Now().Add(m.TTL),
	}, nil
}

// NewRoomName picks a fresh room name under the configured prefix.
func NewRoomName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// Provider memoizes the last issued detail for a fixed identity/room.
//
// ExistingOrRefresh returns the memo while valid; Refresh always mints a
// new token. One attempt per call, failures propagate.
type Provider struct {
	minter      Minter
	identity    string
	displayName string
	roomName    string

	// now is swapped in tests.
	now func() time.Time

	mu      sync.Mutex
	memo    core.ConnectionDetails
	hasMemo bool
}

func NewProvider(minter Minter, identity, displayName, roomName string) *Provider {
	return &Provider{
		minter:      minter,
		identity:    identity,
		displayName: displayName,
		roomName:    roomName,
		now:         time.Now,
	}
}

func (p *Provider) Refresh(ctx context.Context) (core.ConnectionDetails, error) {
	if err := ctx.Err(); err != nil {
		return core.ConnectionDetails{}, err
	}
	details, err := p.minter.Mint(p.identity, p.displayName, p.roomName)
	if err != nil {
		return core.ConnectionDetails{}, err
	}
	p.mu.Lock()
	p.memo = details
	p.hasMemo = true
	p.mu.Unlock()
	log.Debug().Str("module", "adapters.token").Str("room", details.RoomName).Msg("connection details refreshed")
	return details, nil
}

func (p *Provider) ExistingOrRefresh(ctx context.Context) (core.ConnectionDetails, error) {
	p.mu.Lock()
	if p.hasMemo && p.memo.Valid(p.now().Add(refreshSkew)) {
		memo := p.memo
		p.mu.Unlock()
		return memo, nil
	}
	p.mu.Unlock()
	return p.Refresh(ctx)
}
