package a2s

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/opengsq/opengsq-go/pkg/buffer"
)

// Defaults applied by New. Both can be overridden on the Client before the
// first query.
const (
	DefaultTimeout    = 3 * time.Second
	DefaultBufferSize = 1400
)

// Client queries a single game server. Every query call opens its own UDP
// socket and keeps its state on the stack, so one Client may be used from
// multiple goroutines concurrently.
type Client struct {
	// Logger receives protocol trace lines (sent/received datagrams,
	// challenge exchanges, framing decisions) at trace level. Disabled by
	// default.
	Logger zerolog.Logger

	addr *net.UDPAddr

	// Timeout bounds one whole query call, challenge retries included.
	Timeout time.Duration

	// BufferSize is the receive buffer for a single datagram.
	BufferSize uint16
}

// New resolves the target address and returns a Client with default options.
func New(host string, port int) (*Client, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", host, port, err)
	}

	return &Client{
		addr:       addr,
		Timeout:    DefaultTimeout,
		BufferSize: DefaultBufferSize,
		Logger:     zerolog.Nop(),
	}, nil
}

// Addr returns the resolved target address.
func (c *Client) Addr() *net.UDPAddr {
	return c.addr
}

// GetInfo sends A2S_INFO and decodes the reply. Modern servers answer in the
// Source layout, obsolete GoldSrc engines in their own; the dialect is only
// known once the reply arrives, so the result carries exactly one of the two.
func (c *Client) GetInfo() (*InfoResponse, error) {
	payload, err := c.query(requestInfo)
	if err != nil {
		return nil, err
	}

	r := buffer.NewReader(payload)
	switch disc := r.ReadUint8(); disc {
	case responseInfo:
		info, err := parseInfo(r)
		if err != nil {
			return nil, err
		}
		return &InfoResponse{Source: info}, nil
	case responseGoldSrcInfo:
		info, err := parseGoldSrcInfo(r)
		if err != nil {
			return nil, err
		}
		return &InfoResponse{GoldSrc: info}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownResponseType, disc)
	}
}

// GetPlayers sends A2S_PLAYER and decodes the reply.
func (c *Client) GetPlayers() ([]Player, error) {
	payload, err := c.query(requestPlayers)
	if err != nil {
		return nil, err
	}

	r := buffer.NewReader(payload)
	if disc := r.ReadUint8(); disc != responsePlayers {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownResponseType, disc)
	}
	return parsePlayers(r)
}

// GetRules sends A2S_RULES and decodes the reply.
func (c *Client) GetRules() (map[string]string, error) {
	payload, err := c.query(requestRules)
	if err != nil {
		return nil, err
	}

	r := buffer.NewReader(payload)
	if disc := r.ReadUint8(); disc != responseRules {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownResponseType, disc)
	}
	return parseRules(r)
}

// buildRequest constructs the request datagram for one query kind. The info
// request carries the fixed ASCII tag and appends the challenge token only
// once one was received; player and rule requests always carry a token slot,
// filled with the placeholder until the server hands one out.
func buildRequest(kind byte, challenge []byte) []byte {
	req := []byte{0xFF, 0xFF, 0xFF, 0xFF, kind}

	if kind == requestInfo {
		req = append(req, infoQueryTag...)
		req = append(req, 0)
		if challenge != nil {
			req = append(req, challenge...)
		}
		return req
	}

	if challenge == nil {
		challenge = []byte{0xFF, 0xFF, 0xFF, 0xFF}
	}
	return append(req, challenge...)
}

// query runs one request/response cycle: transmit, challenge retries,
// reassembly, and integrity checks, returning the logical payload starting
// at its discriminator byte. The socket is released on every exit path.
func (c *Client) query(kind byte) ([]byte, error) {
	conn, err := net.DialUDP("udp", nil, c.addr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return nil, err
	}

	send := func(req []byte) error {
		c.Logger.Trace().
			Str("server", c.addr.String()).
			Hex("request", req).
			Msg("datagram sent")
		_, err := conn.Write(req)
		return err
	}

	if err := send(buildRequest(kind, nil)); err != nil {
		return nil, err
	}

	asm := newFragmentAssembler(c.Logger)
	retries := 0
	buf := make([]byte, int(c.BufferSize))

	for {
		n, err := conn.Read(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
			}
			return nil, err
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		c.Logger.Trace().
			Str("server", c.addr.String()).
			Int("bytes", n).
			Msg("datagram received")

		if n < 5 {
			return nil, fmt.Errorf("%w: %d byte datagram", ErrInvalidResponseHeader, n)
		}

		switch marker := binary.LittleEndian.Uint32(datagram[:4]); marker {
		case headerSingle:
			payload := datagram[4:]
			if payload[0] == responseChallenge {
				if len(payload) < 5 {
					return nil, fmt.Errorf("%w: short challenge", ErrInvalidResponseHeader)
				}
				if retries >= maxChallengeRetries {
					return nil, ErrRetryExhausted
				}
				retries++

				token := payload[1:5]
				c.Logger.Trace().
					Hex("token", token).
					Int("attempt", retries).
					Msg("challenge received, retransmitting")
				if err := send(buildRequest(kind, token)); err != nil {
					return nil, err
				}
				continue
			}
			return payload, nil

		case headerMulti:
			done, err := asm.add(datagram)
			if err != nil {
				return nil, err
			}
			if done {
				return asm.payload()
			}

		default:
			return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidResponseHeader, marker)
		}
	}
}
