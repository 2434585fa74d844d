package a2s

import "encoding/binary"

// Builders for hand-crafted wire data used across the tests.

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func cstr(s string) []byte {
	return append([]byte(s), 0)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// singleDatagram wraps a payload in the single-packet header.
func singleDatagram(payload []byte) []byte {
	return concat(le32(headerSingle), payload)
}

// modernSplit builds a multi-packet datagram in the modern framing. The
// split-size field is appended on the first packet when sizeField is set;
// extra carries the decompressed-size and checksum fields of a compressed
// first packet.
func modernSplit(id uint32, total, number int, sizeField bool, extra, frag []byte) []byte {
	d := concat(le32(headerMulti), le32(id), []byte{byte(total), byte(number)})
	if number == 0 && sizeField {
		d = append(d, 0xE0, 0x04)
	}
	if number == 0 {
		d = append(d, extra...)
	}
	return append(d, frag...)
}

// goldSrcSplit builds a multi-packet datagram in the GoldSrc framing, with
// packet number and total packed into one byte.
func goldSrcSplit(id uint32, total, number int, frag []byte) []byte {
	b := byte(number)<<4 | byte(total)&0x0F
	return concat(le32(headerMulti), le32(id), []byte{b}, frag)
}

// infoPayload is a current-dialect info response used by several tests:
// "Test Server" on de_dust2, 5 of 10 players, no bots.
func infoPayload() []byte {
	return concat(
		[]byte{responseInfo, 17},
		cstr("Test Server"),
		cstr("de_dust2"),
		cstr("cstrike"),
		cstr("Counter-Strike: Source"),
		le16(240),
		[]byte{5, 10, 0, 'd', 'l', 0, 1},
		cstr("1.0.0.70"),
	)
}

// rulesPayload is a two-entry rules response used by several tests.
func rulesPayload() []byte {
	return concat(
		[]byte{responseRules},
		le16(2),
		cstr("sv_gravity"), cstr("800"),
		cstr("mp_timelimit"), cstr("30"),
	)
}

// splitFrags cuts data into n roughly equal fragments.
func splitFrags(data []byte, n int) [][]byte {
	frags := make([][]byte, 0, n)
	size := (len(data) + n - 1) / n
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		frags = append(frags, data[off:end])
	}
	return frags
}
