package a2s

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// bzRules is singleDatagram(rulesPayload()) compressed with bzip2, and
// bzRulesCRC the CRC32 of the uncompressed bytes.
var bzRules = []byte{
	0x42, 0x5A, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0xE4, 0x1E,
	0x1E, 0x01, 0x00, 0x00, 0x13, 0x4F, 0x80, 0xD0, 0x00, 0x48, 0x40, 0x02,
	0x00, 0x00, 0x00, 0xA2, 0xA6, 0x5D, 0x20, 0x00, 0x00, 0xA0, 0x00, 0x22,
	0x9A, 0x68, 0xD3, 0xD4, 0x00, 0xF4, 0x85, 0x30, 0x9A, 0x68, 0x0D, 0x31,
	0x3A, 0x5E, 0x94, 0x40, 0x95, 0x02, 0x2F, 0xE2, 0x75, 0xA2, 0xAD, 0xD3,
	0x0B, 0x4C, 0xC9, 0x42, 0x3B, 0xDC, 0xC5, 0xBE, 0x2E, 0xE4, 0x8A, 0x70,
	0xA1, 0x21, 0xC8, 0x3C, 0x3C, 0x02,
}

const bzRulesCRC = 0x35C1DF0F

func newTestAssembler() *fragmentAssembler {
	return newFragmentAssembler(zerolog.Nop())
}

func feed(t *testing.T, asm *fragmentAssembler, datagrams ...[]byte) bool {
	t.Helper()

	done := false
	for i, d := range datagrams {
		var err error
		done, err = asm.add(d)
		if err != nil {
			t.Fatalf("add datagram %d failed: %v", i, err)
		}
		if done && i < len(datagrams)-1 {
			t.Fatalf("reassembly reported complete after %d of %d datagrams",
				i+1, len(datagrams))
		}
	}
	return done
}

func TestReassemblyOrderIndependent(t *testing.T) {
	full := singleDatagram(rulesPayload())
	frags := splitFrags(full, 3)

	orders := [][]int{
		{0, 1, 2},
		{2, 0, 1},
		{1, 2, 0},
		{2, 1, 0},
	}

	for _, order := range orders {
		asm := newTestAssembler()

		datagrams := make([][]byte, 0, len(order))
		for _, n := range order {
			datagrams = append(datagrams, modernSplit(0x04, 3, n, true, nil, frags[n]))
		}

		if done := feed(t, asm, datagrams...); !done {
			t.Fatalf("order %v: reassembly never completed", order)
		}

		payload, err := asm.payload()
		if err != nil {
			t.Fatalf("order %v: payload failed: %v", order, err)
		}
		if !bytes.Equal(payload, rulesPayload()) {
			t.Errorf("order %v: payload differs from sequential delivery", order)
		}
	}
}

func TestGoldSrcFramingDetected(t *testing.T) {
	full := singleDatagram(rulesPayload())
	frags := splitFrags(full, 2)

	asm := newTestAssembler()

	// the non-first fragment arrives first and is misread under the modern
	// assumption; the first fragment then exposes the GoldSrc framing and
	// forces both to be reparsed
	done := feed(t, asm,
		goldSrcSplit(7, 2, 1, frags[1]),
		goldSrcSplit(7, 2, 0, frags[0]),
	)
	if !done {
		t.Fatal("reassembly never completed")
	}
	if !asm.goldSrc {
		t.Error("goldsrc framing was not detected")
	}

	payload, err := asm.payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if !bytes.Equal(payload, rulesPayload()) {
		t.Error("payload differs after goldsrc reprocessing")
	}
}

func TestSplitSizeFieldAbsent(t *testing.T) {
	full := singleDatagram(rulesPayload())
	frags := splitFrags(full, 2)

	asm := newTestAssembler()

	done := feed(t, asm,
		modernSplit(9, 2, 1, false, nil, frags[1]),
		modernSplit(9, 2, 0, false, nil, frags[0]),
	)
	if !done {
		t.Fatal("reassembly never completed")
	}
	if asm.sizeField {
		t.Error("split-size assumption was not demoted")
	}

	payload, err := asm.payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if !bytes.Equal(payload, rulesPayload()) {
		t.Error("payload differs after size-field reprocessing")
	}
}

func TestCompressedResponse(t *testing.T) {
	frags := splitFrags(bzRules, 2)
	id := uint32(0x10) | compressedFlag
	extra := concat(le32(uint32(len(singleDatagram(rulesPayload())))), le32(bzRulesCRC))

	asm := newTestAssembler()

	done := feed(t, asm,
		modernSplit(id, 2, 1, true, nil, frags[1]),
		modernSplit(id, 2, 0, true, extra, frags[0]),
	)
	if !done {
		t.Fatal("reassembly never completed")
	}

	payload, err := asm.payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if !bytes.Equal(payload, rulesPayload()) {
		t.Error("decompressed payload differs from original")
	}
}

func TestCompressedChecksumMismatch(t *testing.T) {
	frags := splitFrags(bzRules, 2)
	id := uint32(0x10) | compressedFlag
	extra := concat(le32(uint32(len(singleDatagram(rulesPayload())))), le32(bzRulesCRC^0xFF))

	asm := newTestAssembler()

	if done := feed(t, asm,
		modernSplit(id, 2, 1, true, nil, frags[1]),
		modernSplit(id, 2, 0, true, extra, frags[0]),
	); !done {
		t.Fatal("reassembly never completed")
	}

	if _, err := asm.payload(); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestCompressedWithoutSizeField(t *testing.T) {
	// oldest framing variant: compressed response whose first packet lacks
	// the split-size field. It can only be told apart by the decompression
	// failure, after which the buffered datagrams are reparsed without any
	// further network traffic.
	frags := splitFrags(bzRules, 2)
	id := uint32(0x10) | compressedFlag
	extra := concat(le32(uint32(len(singleDatagram(rulesPayload())))), le32(bzRulesCRC))

	asm := newTestAssembler()

	if done := feed(t, asm,
		modernSplit(id, 2, 1, false, nil, frags[1]),
		modernSplit(id, 2, 0, false, extra, frags[0]),
	); !done {
		t.Fatal("reassembly never completed")
	}

	payload, err := asm.payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if asm.sizeField {
		t.Error("split-size assumption was not demoted")
	}
	if !bytes.Equal(payload, rulesPayload()) {
		t.Error("decompressed payload differs from original")
	}
}

func TestSplitPacketWithoutTotal(t *testing.T) {
	asm := newTestAssembler()

	d := modernSplit(1, 0, 0, true, nil, []byte{0x01, 0x02})
	if _, err := asm.add(d); !errors.Is(err, ErrInvalidResponseHeader) {
		t.Errorf("expected ErrInvalidResponseHeader, got %v", err)
	}
}

func TestDuplicateFragmentOverwrites(t *testing.T) {
	full := singleDatagram(rulesPayload())
	frags := splitFrags(full, 2)

	asm := newTestAssembler()

	// stale copy of fragment 1 first, then the real one
	stale := bytes.Repeat([]byte{0xEE}, len(frags[1]))
	done := feed(t, asm,
		modernSplit(3, 2, 1, true, nil, stale),
		modernSplit(3, 2, 1, true, nil, frags[1]),
		modernSplit(3, 2, 0, true, nil, frags[0]),
	)
	if !done {
		t.Fatal("reassembly never completed")
	}

	payload, err := asm.payload()
	if err != nil {
		t.Fatalf("payload failed: %v", err)
	}
	if !bytes.Equal(payload, rulesPayload()) {
		t.Error("later duplicate fragment must overwrite the earlier one")
	}
}
