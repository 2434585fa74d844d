// Package scan queries a batch of game servers through a bounded worker
// pool with a shared rate limit.
package scan

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/opengsq/opengsq-go/internal/config"
	"github.com/opengsq/opengsq-go/internal/geoip"
	"github.com/opengsq/opengsq-go/pkg/a2s"
)

// Target is one game server address to query.
type Target struct {
	Host string
	Port int
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ParseTargets parses host:port arguments into targets, dropping duplicates
// while preserving the order of first appearance.
func ParseTargets(args []string) ([]Target, error) {
	seen := make(map[uint64]struct{}, len(args))
	targets := make([]Target, 0, len(args))

	for _, arg := range args {
		host, portStr, err := net.SplitHostPort(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", arg, err)
		}

		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port in target %q", arg)
		}

		hash := xxhash.Sum64String(arg)
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}

		targets = append(targets, Target{Host: host, Port: port})
	}

	return targets, nil
}

// Result holds the outcome of querying one target. Exactly one of Info,
// Players or Rules is populated on success, depending on the query kind.
type Result struct {
	Target  string            `json:"target"`
	Country string            `json:"country,omitempty"`
	Info    *a2s.InfoResponse `json:"info,omitempty"`
	Players []a2s.Player      `json:"players,omitempty"`
	Rules   map[string]string `json:"rules,omitempty"`
	Err     error             `json:"-"`
	Error   string            `json:"error,omitempty"`
	Latency time.Duration     `json:"latency"`
}

// Scanner runs one query kind against a set of targets.
type Scanner struct {
	cfg     *config.Config
	geo     *geoip.Provider
	limiter *rate.Limiter
}

// New creates a Scanner. geo may be nil, in which case country annotation
// is skipped.
func New(cfg *config.Config, geo *geoip.Provider) *Scanner {
	limit := rate.Limit(float64(cfg.Scan.Limit) / cfg.Scan.Window.Seconds())

	return &Scanner{
		cfg:     cfg,
		geo:     geo,
		limiter: rate.NewLimiter(limit, cfg.Scan.Limit),
	}
}

// Run queries every target and returns one result per target, in target
// order. Each worker drives its own client, so targets never share query
// state or sockets.
func (s *Scanner) Run(targets []Target) []Result {
	results := make([]Result, len(targets))
	jobs := make(chan int, len(targets))
	var wg sync.WaitGroup

	workers := s.cfg.Scan.Workers
	if workers > len(targets) {
		workers = len(targets)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.queryTarget(targets[idx])
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Scanner) queryTarget(t Target) Result {
	_ = s.limiter.Wait(context.Background())

	res := Result{Target: t.String()}

	client, err := a2s.New(t.Host, t.Port)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	client.Timeout = s.cfg.A2S.Timeout
	client.BufferSize = s.cfg.A2S.BufferSize

	if s.cfg.Query.Trace {
		client.Logger = log.With().
			Str("component", "a2s").
			Str("server", res.Target).
			Logger()
	}

	if s.geo != nil {
		res.Country = s.geo.CountryCode(client.Addr().IP)
	}

	start := time.Now()
	switch s.cfg.Query.Kind {
	case "players":
		res.Players, res.Err = client.GetPlayers()
	case "rules":
		res.Rules, res.Err = client.GetRules()
	default:
		res.Info, res.Err = client.GetInfo()
	}
	res.Latency = time.Since(start)

	if res.Err != nil {
		res.Error = res.Err.Error()
		log.Debug().Err(res.Err).Str("server", res.Target).Msg("Query failed")
	} else {
		log.Debug().
			Str("server", res.Target).
			Dur("latency", res.Latency).
			Msg("Query succeeded")
	}

	return res
}
