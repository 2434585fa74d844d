// Package a2s implements a client for the A2S game server query protocol:
// request construction, the challenge handshake, multi-packet reassembly
// across the historical framing dialects, bzip2 decompression with CRC32
// verification, and decoding of the info, player and rule responses.
package a2s

// Response markers. Every datagram starts with one of the two headers; a
// challenge is a single-packet datagram whose payload starts with the
// challenge discriminator.
const (
	headerSingle uint32 = 0xFFFFFFFF
	headerMulti  uint32 = 0xFFFFFFFE
)

// Request discriminators.
const (
	requestInfo    byte = 0x54 // 'T'
	requestPlayers byte = 0x55 // 'U'
	requestRules   byte = 0x56 // 'V'
)

// Response payload discriminators.
const (
	responseChallenge   byte = 0x41 // 'A'
	responseInfo        byte = 0x49 // 'I'
	responseGoldSrcInfo byte = 0x6D // 'm'
	responsePlayers     byte = 0x44 // 'D'
	responseRules       byte = 0x45 // 'E'
)

// infoQueryTag is the fixed ASCII payload carried by A2S_INFO requests.
const infoQueryTag = "Source Engine Query"

// compressedFlag marks a multi-packet response identifier whose payload is
// bzip2 compressed.
const compressedFlag uint32 = 0x80000000

// maxChallengeRetries bounds how many times a request is retransmitted with
// a challenge token before giving up.
const maxChallengeRetries = 2

// appIDTheShip is the application id of The Ship, whose responses carry
// extra info fields and per-player deaths/money records.
const appIDTheShip = 2400
