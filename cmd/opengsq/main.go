// main is the entry point of the opengsq query tool.
// It initializes the configuration and logger, optionally prepares the GeoIP
// provider, queries the requested game servers, and prints the results.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/opengsq/opengsq-go/internal/config"
	"github.com/opengsq/opengsq-go/internal/geoip"
	"github.com/opengsq/opengsq-go/internal/logger"
	"github.com/opengsq/opengsq-go/internal/scan"
)

func main() {
	cfg := config.Parse()

	// Protocol trace lines are emitted at trace level
	if cfg.Query.Trace {
		cfg.Logger.Level = "trace"
	}
	logger.Setup(cfg.Logger)

	// GeoIP
	var geo *geoip.Provider
	if cfg.GeoIP.Lookup {
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		provider, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			geo = provider
			defer func() {
				if err := geo.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	targets, err := scan.ParseTargets(cfg.Args.Targets)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid target list")
	}

	results := scan.New(cfg, geo).Run(targets)

	if cfg.Query.Output == "json" {
		err = printJSON(results)
	} else {
		err = printTables(cfg.Query.Kind, results)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render results")
	}

	// Non-zero exit when no target answered
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		os.Exit(1)
	}
}
