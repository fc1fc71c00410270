package searcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/nvd-search/config"
	"github.com/aquasecurity/nvd-search/nvd"
)

const emptyFeed = `{"CVE_Items": []}`

// nvdServer serves testdata/nvdcve-<segment>.json and an empty feed for
// every other segment.
type nvdServer struct {
	t         *testing.T
	mu        sync.Mutex
	down      bool
	downloads int
}

func (s *nvdServer) feed(seg string) []byte {
	b, err := os.ReadFile(filepath.Join("testdata", fmt.Sprintf("nvdcve-%s.json", seg)))
	if os.IsNotExist(err) {
		return []byte(emptyFeed)
	}
	require.NoError(s.t, err)
	return b
}

func (s *nvdServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()
	if down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/nvdcve-1.1-")
	switch {
	case strings.HasSuffix(name, ".meta"):
		sum := sha256.Sum256(s.feed(strings.TrimSuffix(name, ".meta")))
		fmt.Fprintf(w, "lastModifiedDate:2018-03-01T03:01:51-05:00\r\nsha256:%s\r\n", strings.ToUpper(hex.EncodeToString(sum[:])))
	case strings.HasSuffix(name, ".json.zip"):
		seg := strings.TrimSuffix(name, ".json.zip")
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		fw, err := zw.Create(fmt.Sprintf("nvdcve-1.1-%s.json", seg))
		require.NoError(s.t, err)
		_, err = fw.Write(s.feed(seg))
		require.NoError(s.t, err)
		require.NoError(s.t, zw.Close())

		if r.Method == http.MethodGet {
			s.mu.Lock()
			s.downloads++
			s.mu.Unlock()
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(buf.Bytes()))
	default:
		http.NotFound(w, r)
	}
}

func (s *nvdServer) setDown(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = v
}

func (s *nvdServer) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

func newTestSearcher(t *testing.T, ts *httptest.Server, fs afero.Fs) *Searcher {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	conf := config.Default()
	conf.FeedURL = ts.URL
	conf.Retry = 0
	s, err := New(conf, WithUpdater(nvd.NewUpdater(
		nvd.WithBaseURL(u),
		nvd.WithDir("/nvd"),
		nvd.WithAppFs(fs),
		nvd.WithRetry(0),
		nvd.WithClock(func() time.Time { return time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC) }),
	)))
	require.NoError(t, err)
	return s
}

func TestSearcher_Update(t *testing.T) {
	server := &nvdServer{t: t}
	ts := httptest.NewServer(server)
	defer ts.Close()

	s := newTestSearcher(t, ts, afero.NewMemMapFs())

	// nothing loaded yet
	assert.Empty(t, s.SearchVuln("Adobe Incorporated Systems", "Adobe Acrobat Reader DC", "15.006.30060"))

	require.NoError(t, s.Update(context.Background(), 2017, false))
	assert.Equal(t, 3, server.downloadCount())

	got := s.SearchVuln("Adobe Incorporated Systems", "Adobe Acrobat Reader DC", "15.006.30060")
	require.Len(t, got, 1)
	assert.Equal(t, "CVE-2018-4916", got[0].ID)
	assert.Equal(t, "HIGH", got[0].SeverityV3)
	assert.Contains(t, got[0].References, "http://www.securityfocus.com/bid/102994")
	assert.Empty(t, s.SearchVuln("Adobe Incorporated Systems", "Adobe Acrobat Reader DC", "15.006.30061"))

	record, ok := s.SearchByID("CVE-2018-0101")
	require.True(t, ok)
	assert.Equal(t, "Modified description: a vulnerability in the XML parser of Cisco ASA.", record.Description)

	// no remote change, no download
	require.NoError(t, s.Update(context.Background(), 2017, false))
	assert.Equal(t, 3, server.downloadCount())

	// hard update downloads everything again
	require.NoError(t, s.Update(context.Background(), 2017, true))
	assert.Equal(t, 6, server.downloadCount())

	// a failed update keeps serving the previous index
	server.setDown(true)
	require.Error(t, s.Update(context.Background(), 2017, true))
	_, ok = s.SearchByID("CVE-2018-4916")
	assert.True(t, ok)
}

func TestSearcher_LoadCached(t *testing.T) {
	server := &nvdServer{t: t}
	ts := httptest.NewServer(server)
	fs := afero.NewMemMapFs()

	require.NoError(t, newTestSearcher(t, ts, fs).Update(context.Background(), 2018, false))
	ts.Close()

	s := newTestSearcher(t, ts, fs)
	require.NoError(t, s.LoadCached(context.Background(), 2018))

	_, ok := s.SearchByID("CVE-2018-1000001")
	assert.True(t, ok)
	assert.Len(t, s.SearchVuln("", "glibc", "2.26"), 1)
}

func TestSearcher_LoadCached_Empty(t *testing.T) {
	server := &nvdServer{t: t}
	ts := httptest.NewServer(server)
	defer ts.Close()

	s := newTestSearcher(t, ts, afero.NewMemMapFs())
	require.NoError(t, s.LoadCached(context.Background(), 2018))
	assert.Empty(t, s.SearchVuln("Adobe", "Acrobat Reader DC", "15.006.30060"))
}

func TestNew(t *testing.T) {
	server := &nvdServer{t: t}
	ts := httptest.NewServer(server)
	defer ts.Close()

	conf := config.Default()
	conf.DataDir = t.TempDir()
	conf.FeedURL = ts.URL
	conf.EarliestYear = time.Now().UTC().Year()

	s, err := New(conf)
	require.NoError(t, err)
	require.NoError(t, s.Update(context.Background(), conf.EarliestYear, false))

	_, err = os.Stat(filepath.Join(conf.DataDir, "state.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(conf.DataDir, "modified.json.zip"))
	require.NoError(t, err)

	record, ok := s.SearchByID("CVE-2018-0101")
	require.True(t, ok)
	assert.Equal(t, "CRITICAL", record.SeverityV3)
}
