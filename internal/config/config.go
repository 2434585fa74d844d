// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/opengsq/opengsq-go/internal/logger"
	"github.com/opengsq/opengsq-go/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	Query  Query         `group:"Query Options" env-namespace:"OPENGSQ"`
	A2S    A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"OPENGSQ_A2S"`
	GeoIP  GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"OPENGSQ_GEOIP"`
	Scan   Scan          `group:"Scan Options" namespace:"scan" env-namespace:"OPENGSQ_SCAN"`
	Logger logger.Config `group:"Logger Options" namespace:"log" env-namespace:"OPENGSQ_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`

	Args struct {
		Targets []string `positional-arg-name:"host:port" description:"Game server addresses to query"`
	} `positional-args:"true"`
}

// Query holds the options for a single query run.
type Query struct {
	Kind   string `short:"q" long:"query" env:"QUERY" description:"Query kind" default:"info" choice:"info" choice:"players" choice:"rules"`
	Output string `short:"o" long:"output" env:"OUTPUT" description:"Output format" default:"table" choice:"table" choice:"json"`
	Trace  bool   `long:"trace" env:"TRACE" description:"Emit protocol trace lines for sent and received datagrams"`
}

// A2S holds Source Query protocol configuration.
type A2S struct {
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Lookup   bool          `short:"g" long:"lookup" env:"LOOKUP" description:"Annotate targets with their country code"`
	Path     string        `long:"path" env:"PATH" description:"Path to MMDB file" default:"opengsq.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Scan holds the worker pool and rate limit settings used when querying
// multiple targets in one run.
type Scan struct {
	Workers int           `long:"workers" env:"WORKERS" description:"Concurrent query workers" default:"10"`
	Limit   int           `long:"limit" env:"LIMIT" description:"Rate limit: queries per window" default:"16"`
	Window  time.Duration `long:"window" env:"WINDOW" description:"Rate limit: window duration" default:"1s"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the
// help or version flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if len(cfg.Args.Targets) == 0 {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	return &cfg
}
