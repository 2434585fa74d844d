package a2s

import (
	"fmt"

	"github.com/opengsq/opengsq-go/pkg/buffer"
)

// Player is one entry of an A2S_PLAYER response. Deaths and Money are only
// populated for titles that append the extended block (The Ship).
type Player struct {
	Name     string  `json:"name"`
	Score    int32   `json:"score"`
	Duration float32 `json:"duration"`
	Deaths   int32   `json:"deaths,omitempty"`
	Money    int32   `json:"money,omitempty"`
	Index    byte    `json:"index"`
}

// parsePlayers decodes a player-list payload. The reader is positioned just
// past the discriminator byte.
//
// The extended per-player block has no flag or count of its own: its
// presence is inferred from bytes remaining after the base records, which is
// how the protocol itself distinguishes it.
func parsePlayers(r *buffer.Reader) ([]Player, error) {
	count := int(r.ReadUint8())

	players := make([]Player, 0, count)
	for i := 0; i < count; i++ {
		p := Player{}
		p.Index = r.ReadUint8()
		p.Name = r.ReadString()
		p.Score = r.ReadInt32()
		p.Duration = r.ReadFloat32()
		players = append(players, p)
	}

	if r.Err() == nil && r.Remaining() > 0 {
		for i := range players {
			players[i].Deaths = r.ReadInt32()
			players[i].Money = r.ReadInt32()
		}
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("player response: %w", ErrTruncatedPayload)
	}

	return players, nil
}
