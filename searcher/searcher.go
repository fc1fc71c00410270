package searcher

import (
	"context"
	"net/url"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/config"
	"github.com/aquasecurity/nvd-search/index"
	"github.com/aquasecurity/nvd-search/nvd"
	"github.com/aquasecurity/nvd-search/types"
)

type Option func(*Searcher)

// WithUpdater replaces the updater built from the config.
func WithUpdater(u *nvd.Updater) Option {
	return func(s *Searcher) { s.updater = u }
}

// Searcher answers vulnerability queries against the NVD feed. Create one at
// startup, call Update periodically and search from any goroutine.
type Searcher struct {
	mu      sync.Mutex // serializes Update and LoadCached
	updater *nvd.Updater
	index   *index.Index
}

func New(conf config.Config, opts ...Option) (*Searcher, error) {
	feedURL, err := url.Parse(conf.FeedURL)
	if err != nil {
		return nil, xerrors.Errorf("invalid feed URL: %w", err)
	}

	s := &Searcher{
		updater: nvd.NewUpdater(
			nvd.WithBaseURL(feedURL),
			nvd.WithDir(conf.DataDir),
			nvd.WithRetry(conf.Retry),
		),
		index: index.New(index.WithProgress(conf.Progress)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Update syncs the feed segments from earliestYear on and reloads the index.
// hard re-downloads every segment. On error the previous index stays in use.
func (s *Searcher) Update(ctx context.Context, earliestYear int, hard bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := s.updater.Sync(ctx, earliestYear, hard)
	if err != nil {
		return xerrors.Errorf("NVD sync error: %w", err)
	}
	if err = s.index.Load(ctx, s.updater, segments); err != nil {
		return xerrors.Errorf("NVD index error: %w", err)
	}
	return nil
}

// LoadCached loads the index from the artifacts already on disk.
func (s *Searcher) LoadCached(ctx context.Context, earliestYear int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := s.updater.Cached(earliestYear)
	if err != nil {
		return xerrors.Errorf("failed to list cached segments: %w", err)
	}
	if len(segments) == 0 {
		log.Println("No cached NVD artifacts")
		return nil
	}
	if err = s.index.Load(ctx, s.updater, segments); err != nil {
		return xerrors.Errorf("NVD index error: %w", err)
	}
	return nil
}

func (s *Searcher) SearchVuln(vendor, product, version string) []types.CVERecord {
	return s.index.SearchVuln(vendor, product, version)
}

func (s *Searcher) SearchByID(cveID string) (types.CVERecord, bool) {
	return s.index.SearchByID(cveID)
}
