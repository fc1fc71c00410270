package nvd

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/utils"
)

const (
	baseURL = "https://nvd.nist.gov/feeds/json/cve/1.1"
	retry   = 2 // 3 attempts per network call
)

type option func(*Updater)

func WithBaseURL(v *url.URL) option {
	return func(u *Updater) { u.baseURL = v }
}

func WithDir(v string) option {
	return func(u *Updater) { u.dir = v }
}

func WithAppFs(v afero.Fs) option {
	return func(u *Updater) { u.appFs = v }
}

func WithRetry(v int) option {
	return func(u *Updater) { u.retry = v }
}

// WithBackoff sets the wait between two attempts of a network call.
func WithBackoff(v utils.Backoff) option {
	return func(u *Updater) { u.backoff = v }
}

// WithClock sets the source of the current year.
func WithClock(v func() time.Time) option {
	return func(u *Updater) { u.clock = v }
}

// Updater keeps local copies of the NVD feed segments in sync with the remote.
type Updater struct {
	dir     string
	appFs   afero.Fs
	baseURL *url.URL
	retry   int
	backoff utils.Backoff
	clock   func() time.Time
}

func NewUpdater(options ...option) *Updater {
	updater := &Updater{
		dir:     utils.DataDir(),
		appFs:   afero.NewOsFs(),
		baseURL: lo.Must(url.Parse(baseURL)),
		retry:   retry,
		backoff: utils.DefaultBackoff,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(updater)
	}
	return updater
}

// Sync downloads every segment from earliestYear to the current year plus
// "modified" whose remote hash differs from the stored one, or all of them
// when force is set. It returns the segments in parse order.
func (u *Updater) Sync(ctx context.Context, earliestYear int, force bool) ([]Segment, error) {
	segments := Segments(earliestYear, u.clock().Year())
	state, err := u.loadState()
	if err != nil {
		return nil, err
	}

	log.Printf("Syncing %d NVD feed segments into %s", len(segments), u.dir)
	var downloaded int
	for _, seg := range segments {
		hash, fetched, err := u.syncSegment(ctx, seg, state[string(seg)], force)
		if err != nil {
			// keep the hashes of the artifacts written so far
			if serr := u.saveState(state); serr != nil {
				log.Printf("failed to save sync state: %s", serr)
			}
			return nil, xerrors.Errorf("failed to sync segment %s: %w", seg, err)
		}
		state[string(seg)] = hash
		if fetched {
			downloaded++
		}
	}

	if err = u.saveState(state); err != nil {
		return nil, err
	}
	log.WithField("downloaded", downloaded).Printf("NVD feed segments are up to date")
	return segments, nil
}

func (u *Updater) syncSegment(ctx context.Context, seg Segment, stored string, force bool) (string, bool, error) {
	metaURL := u.baseURL.JoinPath(seg.metaName())
	b, err := utils.FetchURL(ctx, metaURL.String(), u.retry, u.backoff)
	if err != nil {
		return "", false, xerrors.Errorf("failed to fetch meta: %w", err)
	}
	meta, err := ParseMeta(b)
	if err != nil {
		return "", false, xerrors.Errorf("invalid meta %s: %w", metaURL, err)
	}

	logger := log.WithFields(log.Fields{
		"segment":       seg,
		"sha256":        meta.SHA256,
		"last_modified": meta.LastModifiedDate,
	})

	exists, err := utils.NewFs(u.appFs).Exists(u.ArtifactPath(seg))
	if err != nil {
		return "", false, xerrors.Errorf("failed to stat artifact: %w", err)
	}
	if !force && exists && stored == meta.SHA256 {
		logger.Debug("Artifact is current")
		return stored, false, nil
	}

	logger.Info("Downloading artifact")
	if err = u.download(ctx, seg, meta); err != nil {
		return "", false, err
	}
	return meta.SHA256, true, nil
}

func (u *Updater) download(ctx context.Context, seg Segment, meta Meta) error {
	feedURL := u.baseURL.JoinPath(seg.feedName())
	// store the zip as-is
	q := feedURL.Query()
	q.Set("archive", "false")
	feedURL.RawQuery = q.Encode()

	tmpFile, err := utils.DownloadFile(ctx, feedURL.String(), u.retry, u.backoff)
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	f, err := os.Open(tmpFile)
	if err != nil {
		return xerrors.Errorf("file open error (%s): %w", tmpFile, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return xerrors.Errorf("file stat error (%s): %w", tmpFile, err)
	}
	if meta.ZipSize > 0 && fi.Size() != meta.ZipSize {
		return xerrors.Errorf("artifact size mismatch: got %d bytes, meta says %d", fi.Size(), meta.ZipSize)
	}

	if err = utils.NewFs(u.appFs).WriteFileAtomic(u.ArtifactPath(seg), f); err != nil {
		return xerrors.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// Cached returns the segments from earliestYear on whose artifacts are on disk.
func (u *Updater) Cached(earliestYear int) ([]Segment, error) {
	var cached []Segment
	fs := utils.NewFs(u.appFs)
	for _, seg := range Segments(earliestYear, u.clock().Year()) {
		exists, err := fs.Exists(u.ArtifactPath(seg))
		if err != nil {
			return nil, xerrors.Errorf("failed to stat artifact: %w", err)
		}
		if exists {
			cached = append(cached, seg)
		}
	}
	return cached, nil
}

func (u *Updater) ArtifactPath(seg Segment) string {
	return filepath.Join(u.dir, seg.FileName())
}

// Open opens the local artifact of seg.
func (u *Updater) Open(seg Segment) (afero.File, error) {
	f, err := u.appFs.Open(u.ArtifactPath(seg))
	if err != nil {
		return nil, xerrors.Errorf("failed to open artifact %s: %w", seg, err)
	}
	return f, nil
}
