package a2s

import (
	"fmt"

	"github.com/opengsq/opengsq-go/pkg/buffer"
)

// Extra-data flag bits in the current-dialect info response. Each bit gates
// one trailing field group, read in the order listed here.
const (
	edfPort      byte = 0x80
	edfSteamID   byte = 0x10
	edfSourceTV  byte = 0x40
	edfKeywords  byte = 0x20
	edfGameID    byte = 0x01
)

// Info is the current-dialect (Source engine) A2S_INFO response.
type Info struct {
	Name          string  `json:"name"`
	Map           string  `json:"map"`
	Folder        string  `json:"folder"`
	Game          string  `json:"game"`
	Version       string  `json:"version"`
	Keywords      string  `json:"keywords,omitempty"`
	SpectatorName string  `json:"spectator_name,omitempty"`
	SteamID       uint64  `json:"steam_id,omitempty"`
	GameID        uint64  `json:"game_id,omitempty"`
	TheShip       *Ship   `json:"the_ship,omitempty"`
	ID            uint16  `json:"id"`
	Port          uint16  `json:"port,omitempty"`
	SpectatorPort uint16  `json:"spectator_port,omitempty"`
	Protocol      byte    `json:"protocol"`
	Players       byte    `json:"players"`
	MaxPlayers    byte    `json:"max_players"`
	Bots          byte    `json:"bots"`
	ServerType    byte    `json:"server_type"`
	Environment   byte    `json:"environment"`
	Visibility    bool    `json:"visibility"`
	VAC           bool    `json:"vac"`
	EDF           byte    `json:"-"`
}

// Ship holds the extra info fields sent only by The Ship (appid 2400).
type Ship struct {
	Mode      byte `json:"mode"`
	Witnesses byte `json:"witnesses"`
	Duration  byte `json:"duration"`
}

// GoldSrcInfo is the obsolete GoldSrc-dialect A2S_INFO response.
type GoldSrcInfo struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	Map         string   `json:"map"`
	Folder      string   `json:"folder"`
	Game        string   `json:"game"`
	Mod         *ModInfo `json:"mod,omitempty"`
	Players     byte     `json:"players"`
	MaxPlayers  byte     `json:"max_players"`
	Protocol    byte     `json:"protocol"`
	ServerType  byte     `json:"server_type"`
	Environment byte     `json:"environment"`
	Visibility  bool     `json:"visibility"`
	VAC         bool     `json:"vac"`
	Bots        byte     `json:"bots"`
}

// ModInfo describes the half-life mod block of a GoldSrc info response.
type ModInfo struct {
	Link         string `json:"link"`
	DownloadLink string `json:"download_link"`
	Version      int32  `json:"version"`
	Size         int32  `json:"size"`
	Type         byte   `json:"type"`
	DLL          byte   `json:"dll"`
}

// InfoResponse is the reply to an A2S_INFO query. The dialect is only known
// once the reply arrives, so exactly one of the two fields is set.
type InfoResponse struct {
	Source  *Info        `json:"source,omitempty"`
	GoldSrc *GoldSrcInfo `json:"goldsrc,omitempty"`
}

// parseInfo decodes a current-dialect info payload. The reader is positioned
// just past the discriminator byte.
func parseInfo(r *buffer.Reader) (*Info, error) {
	info := &Info{}

	info.Protocol = r.ReadUint8()
	info.Name = r.ReadString()
	info.Map = r.ReadString()
	info.Folder = r.ReadString()
	info.Game = r.ReadString()
	info.ID = r.ReadUint16()
	info.Players = r.ReadUint8()
	info.MaxPlayers = r.ReadUint8()
	info.Bots = r.ReadUint8()
	info.ServerType = r.ReadUint8()
	info.Environment = r.ReadUint8()
	info.Visibility = r.ReadUint8() == 1
	info.VAC = r.ReadUint8() == 1

	if info.ID == appIDTheShip {
		info.TheShip = &Ship{
			Mode:      r.ReadUint8(),
			Witnesses: r.ReadUint8(),
			Duration:  r.ReadUint8(),
		}
	}

	info.Version = r.ReadString()

	// Trailing extra data is optional; older servers end here.
	if r.Err() == nil && r.Remaining() > 0 {
		info.EDF = r.ReadUint8()

		if info.EDF&edfPort != 0 {
			info.Port = r.ReadUint16()
		}
		if info.EDF&edfSteamID != 0 {
			info.SteamID = r.ReadUint64()
		}
		if info.EDF&edfSourceTV != 0 {
			info.SpectatorPort = r.ReadUint16()
			info.SpectatorName = r.ReadString()
		}
		if info.EDF&edfKeywords != 0 {
			info.Keywords = r.ReadString()
		}
		if info.EDF&edfGameID != 0 {
			info.GameID = r.ReadUint64()
		}
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("info response: %w", ErrTruncatedPayload)
	}

	return info, nil
}

// parseGoldSrcInfo decodes an obsolete GoldSrc info payload. The reader is
// positioned just past the discriminator byte.
func parseGoldSrcInfo(r *buffer.Reader) (*GoldSrcInfo, error) {
	info := &GoldSrcInfo{}

	info.Address = r.ReadString()
	info.Name = r.ReadString()
	info.Map = r.ReadString()
	info.Folder = r.ReadString()
	info.Game = r.ReadString()
	info.Players = r.ReadUint8()
	info.MaxPlayers = r.ReadUint8()
	info.Protocol = r.ReadUint8()
	info.ServerType = r.ReadUint8()
	info.Environment = r.ReadUint8()
	info.Visibility = r.ReadUint8() == 1

	if r.ReadUint8() == 1 {
		mod := &ModInfo{}
		mod.Link = r.ReadString()
		mod.DownloadLink = r.ReadString()
		r.Skip(1) // reserved null byte
		mod.Version = r.ReadInt32()
		mod.Size = r.ReadInt32()
		mod.Type = r.ReadUint8()
		mod.DLL = r.ReadUint8()
		info.Mod = mod
	}

	info.VAC = r.ReadUint8() == 1
	info.Bots = r.ReadUint8()

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("goldsrc info response: %w", ErrTruncatedPayload)
	}

	return info, nil
}
