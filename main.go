package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/config"
	"github.com/aquasecurity/nvd-search/searcher"
)

var (
	configPath = flag.String("config", "", "path to the YAML config file")
	year       = flag.Int("year", 0, "earliest feed year to sync (overrides earliest_year)")
	hard       = flag.Bool("hard", false, "download every feed segment again")
	offline    = flag.Bool("offline", false, "load the cached artifacts without syncing")
	cveID      = flag.String("cve", "", "CVE ID to look up")
	vendor     = flag.String("vendor", "", "vendor to search")
	product    = flag.String("product", "", "product to search")
	version    = flag.String("version", "", "version to search")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		return xerrors.Errorf("config error: %w", err)
	}
	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return xerrors.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	earliestYear := conf.EarliestYear
	if *year != 0 {
		earliestYear = *year
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := searcher.New(conf)
	if err != nil {
		return err
	}

	if *offline {
		err = s.LoadCached(ctx, earliestYear)
	} else {
		err = s.Update(ctx, earliestYear, *hard)
	}
	if err != nil {
		return xerrors.Errorf("error in NVD update: %w", err)
	}

	var result interface{}
	switch {
	case *cveID != "":
		record, ok := s.SearchByID(*cveID)
		if !ok {
			return xerrors.Errorf("%s not found", *cveID)
		}
		result = record
	case *product != "":
		result = s.SearchVuln(*vendor, *product, *version)
	default:
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
