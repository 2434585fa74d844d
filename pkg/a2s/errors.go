package a2s

import "errors"

// Errors surfaced by the query operations. Callers discriminate with
// errors.Is; transport-level failures are returned as-is from the net layer.
var (
	// ErrTimeout is returned when no complete response arrives within the
	// client timeout.
	ErrTimeout = errors.New("query timed out")

	// ErrRetryExhausted is returned when the server keeps answering with
	// challenge packets past the retransmission limit.
	ErrRetryExhausted = errors.New("challenge retries exhausted")

	// ErrInvalidResponseHeader is returned for a datagram whose leading
	// marker is neither the single-packet nor the multi-packet header.
	ErrInvalidResponseHeader = errors.New("invalid response header")

	// ErrUnknownResponseType is returned when an assembled payload carries
	// an unrecognized discriminator byte.
	ErrUnknownResponseType = errors.New("unknown response type")

	// ErrDecompress is returned when a compressed payload cannot be
	// inflated under any remaining framing assumption.
	ErrDecompress = errors.New("bzip2 decompression failed")

	// ErrChecksumMismatch is returned when the CRC32 of the decompressed
	// payload does not match the checksum carried on the wire.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrTruncatedPayload is returned by the decoders when a payload ends
	// before its declared fields.
	ErrTruncatedPayload = errors.New("truncated payload")
)
