package config

import (
	"net/url"
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/nvd-search/nvd"
	"github.com/aquasecurity/nvd-search/utils"
)

const (
	defaultFeedURL  = "https://nvd.nist.gov/feeds/json/cve/1.1"
	defaultRetry    = 2
	defaultLogLevel = "info"

	dirEnvName     = "NVD_SEARCH_DIR"
	feedURLEnvName = "NVD_FEED_URL"
)

type Config struct {
	// DataDir holds state.json and one <segment>.json.zip per feed segment.
	DataDir      string `yaml:"data_dir"`
	FeedURL      string `yaml:"feed_url"`
	EarliestYear int    `yaml:"earliest_year"`
	// Retry is the number of retries after a failed network call.
	Retry    int    `yaml:"retry"`
	LogLevel string `yaml:"log_level"`
	Progress bool   `yaml:"progress"`
}

func Default() Config {
	return Config{
		DataDir:      utils.DataDir(),
		FeedURL:      defaultFeedURL,
		EarliestYear: nvd.EarliestYear,
		Retry:        defaultRetry,
		LogLevel:     defaultLogLevel,
	}
}

// Load reads a YAML config file on top of the defaults. An empty path only
// applies the defaults and the environment.
func Load(path string) (Config, error) {
	conf := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to read config: %w", err)
		}
		if err = yaml.UnmarshalStrict(b, &conf); err != nil {
			return Config{}, xerrors.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	conf.DataDir = utils.LookupEnv(dirEnvName, conf.DataDir)
	conf.FeedURL = utils.LookupEnv(feedURLEnvName, conf.FeedURL)

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return xerrors.New("data_dir must be specified")
	}
	if _, err := url.ParseRequestURI(c.FeedURL); err != nil {
		return xerrors.Errorf("invalid feed_url: %w", err)
	}
	if c.EarliestYear < nvd.EarliestYear {
		return xerrors.Errorf("earliest_year must be %d or later: %d", nvd.EarliestYear, c.EarliestYear)
	}
	if c.Retry < 0 {
		return xerrors.Errorf("retry must not be negative: %d", c.Retry)
	}
	return nil
}
