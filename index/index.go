package index

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/nvd"
	"github.com/aquasecurity/nvd-search/types"
)

// Source opens the local artifact of a feed segment.
type Source interface {
	Open(seg nvd.Segment) (afero.File, error)
}

// products maps vendor -> product -> version -> CVE IDs.
type products map[string]map[string]map[string][]string

type snapshot struct {
	records  map[string]types.CVERecord
	products products
}

func newSnapshot() *snapshot {
	return &snapshot{
		records:  map[string]types.CVERecord{},
		products: products{},
	}
}

// merge adds the entries of one segment. A later record replaces an earlier
// one with the same ID; product tuples accumulate.
func (s *snapshot) merge(entries []nvd.Entry) {
	for _, e := range entries {
		id := e.Record.ID
		s.records[id] = e.Record
		for _, a := range e.Affects {
			s.add(normalize(a.Vendor), normalize(a.Product), strings.ToLower(a.Version), id)
		}
	}
}

func (s *snapshot) add(vendor, product, version, id string) {
	// an empty vendor or product would be a substring of every query
	if vendor == "" || product == "" {
		return
	}
	prods, ok := s.products[vendor]
	if !ok {
		prods = map[string]map[string][]string{}
		s.products[vendor] = prods
	}
	versions, ok := prods[product]
	if !ok {
		versions = map[string][]string{}
		prods[product] = versions
	}
	if !lo.Contains(versions[version], id) {
		versions[version] = append(versions[version], id)
	}
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

type Option func(*Index)

// WithProgress shows a progress bar over segments while loading.
func WithProgress(v bool) Option {
	return func(idx *Index) { idx.progress = v }
}

// Index is the in-memory CVE table and product index. Readers never block;
// Load builds a new snapshot and publishes it in one step.
type Index struct {
	mu       sync.Mutex // serializes Load
	current  atomic.Pointer[snapshot]
	progress bool
}

func New(opts ...Option) *Index {
	idx := &Index{}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Load parses segments in order and replaces the live tables. Corrupt
// artifacts are skipped; any other error leaves the previous tables in place.
func (idx *Index) Load(ctx context.Context, src Source, segments []nvd.Segment) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	snap := newSnapshot()
	var bar *pb.ProgressBar
	if idx.progress {
		bar = pb.StartNew(len(segments))
	}
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("index load aborted: %w", err)
		}

		entries, err := parseSegment(src, seg)
		var corrupt *nvd.CorruptArtifactError
		if xerrors.As(err, &corrupt) {
			log.WithField("segment", seg).Warnf("Skip segment: %s", err)
		} else if err != nil {
			return xerrors.Errorf("failed to load segment %s: %w", seg, err)
		} else {
			snap.merge(entries)
			log.WithFields(log.Fields{"segment": seg, "items": len(entries)}).Debug("Segment loaded")
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	idx.current.Store(snap)
	log.WithFields(log.Fields{
		"segments": len(segments),
		"cves":     len(snap.records),
		"vendors":  len(snap.products),
	}).Info("CVE index loaded")
	return nil
}

func parseSegment(src Source, seg nvd.Segment) ([]nvd.Entry, error) {
	f, err := src.Open(seg)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, xerrors.Errorf("stat error: %w", err)
	}
	return nvd.Parse(f, fi.Size())
}

// Len returns the number of CVE records currently served.
func (idx *Index) Len() int {
	snap := idx.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.records)
}
