package a2s

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/opengsq/opengsq-go/pkg/buffer"
)

// fragmentAssembler collects the datagrams of one multi-packet response and
// rebuilds the logical payload. It lives for a single query call.
//
// Servers never announce which framing dialect they speak, so the assembler
// starts from the modern assumptions and demotes them when a datagram
// contradicts them. Each demotion is one-way and re-parses every raw
// datagram buffered so far, which is why the raw datagrams are retained
// instead of only their extracted fragments.
type fragmentAssembler struct {
	log        zerolog.Logger
	fragments  map[int][]byte
	raw        [][]byte
	total      int
	checksum   uint32
	compressed bool
	goldSrc    bool // GoldSrc single-byte packet-number framing detected
	sizeField  bool // first packet carries the 2-byte split-size field
}

func newFragmentAssembler(log zerolog.Logger) *fragmentAssembler {
	return &fragmentAssembler{
		log:       log,
		fragments: make(map[int][]byte),
		total:     -1,
		sizeField: true,
	}
}

// add ingests one multi-packet datagram, header included. It reports whether
// every declared fragment has now been buffered.
func (f *fragmentAssembler) add(datagram []byte) (bool, error) {
	f.raw = append(f.raw, datagram)
	if err := f.parse(datagram); err != nil {
		return false, err
	}
	return f.complete(), nil
}

func (f *fragmentAssembler) complete() bool {
	return f.total > 0 && len(f.fragments) == f.total
}

// reprocess re-parses every buffered raw datagram under the current
// assumption set, discarding previously extracted fragments.
func (f *fragmentAssembler) reprocess() error {
	f.fragments = make(map[int][]byte)
	f.total = -1
	for _, d := range f.raw {
		if err := f.parse(d); err != nil {
			return err
		}
	}
	return nil
}

// parse extracts one fragment from a raw datagram under the active dialect
// assumptions, demoting them first when the datagram contradicts them.
func (f *fragmentAssembler) parse(datagram []byte) error {
	r := buffer.NewReader(datagram)
	r.Skip(4) // multi-packet marker, checked by the caller

	id := r.ReadUint32()
	f.compressed = id&compressedFlag != 0

	// GoldSrc packs packet number and total into one byte, which places the
	// inner single-packet marker at offset 9 of the first datagram. Seeing
	// the marker there falsifies the modern framing assumption.
	if !f.goldSrc && len(datagram) >= 13 &&
		binary.LittleEndian.Uint32(datagram[9:13]) == headerSingle {
		f.goldSrc = true
		f.log.Trace().Msg("goldsrc split framing detected, reparsing buffered packets")
		return f.reprocess()
	}

	var number, total int
	if f.goldSrc {
		b := r.ReadUint8()
		number = int(b >> 4)
		total = int(b & 0x0F)
	} else {
		total = int(r.ReadUint8())
		number = int(r.ReadUint8())

		if number == 0 && f.sizeField && !f.compressed {
			// The split-size field is absent in pre-Orange-Box responses,
			// in which case the inner marker sits right here.
			if p := r.Peek(4); p != nil && binary.LittleEndian.Uint32(p) == headerSingle {
				f.sizeField = false
				f.log.Trace().Msg("split size field absent, reparsing buffered packets")
				return f.reprocess()
			}
			r.Skip(2)
		} else if number == 0 && f.sizeField {
			r.Skip(2)
		}

		if number == 0 && f.compressed {
			_ = r.ReadUint32() // decompressed size, informational
			f.checksum = r.ReadUint32()
		}
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: short split packet", ErrInvalidResponseHeader)
	}
	if total <= 0 {
		return fmt.Errorf("%w: split packet declares no total", ErrInvalidResponseHeader)
	}

	f.total = total
	f.fragments[number] = r.Rest()

	f.log.Trace().
		Int("number", number).
		Int("total", total).
		Bool("compressed", f.compressed).
		Msg("split packet buffered")

	return nil
}

// assemble concatenates the buffered fragments in packet-number order.
func (f *fragmentAssembler) assemble() []byte {
	numbers := make([]int, 0, len(f.fragments))
	for n := range f.fragments {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var buf bytes.Buffer
	for _, n := range numbers {
		buf.Write(f.fragments[n])
	}
	return buf.Bytes()
}

// payload returns the reassembled logical payload with the inner
// single-packet marker stripped, decompressing and verifying it first when
// the response identifier marked it compressed.
func (f *fragmentAssembler) payload() ([]byte, error) {
	data := f.assemble()

	if f.compressed {
		out, err := decompress(data)
		if err != nil && f.sizeField {
			// Last framing variant that cannot be told apart up front: the
			// split-size field was never there. Drop the assumption and
			// rebuild from the raw datagrams already in hand.
			f.sizeField = false
			f.log.Trace().Msg("decompression failed, retrying without split size field")
			if rerr := f.reprocess(); rerr != nil {
				return nil, rerr
			}
			out, err = decompress(f.assemble())
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
		}

		if sum := crc32.ChecksumIEEE(out); sum != f.checksum {
			return nil, fmt.Errorf("%w: got 0x%08X want 0x%08X",
				ErrChecksumMismatch, sum, f.checksum)
		}
		data = out
	}

	if len(data) < 4 || binary.LittleEndian.Uint32(data[:4]) != headerSingle {
		return nil, fmt.Errorf("%w: reassembled payload", ErrInvalidResponseHeader)
	}
	return data[4:], nil
}

func decompress(data []byte) ([]byte, error) {
	return io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
}
