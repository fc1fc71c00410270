package utils

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parnurzeal/gorequest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const defaultDirName = "nvd-search"

func CacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return cacheDir
}

// DataDir is where artifacts and state.json live unless configured otherwise.
func DataDir() string {
	return filepath.Join(CacheDir(), defaultDirName)
}

// Backoff returns the wait before the given retry attempt (1-based).
type Backoff func(attempt int) time.Duration

// DefaultBackoff waits attempt^2 seconds plus up to 9 seconds of jitter.
func DefaultBackoff(attempt int) time.Duration {
	wait := math.Pow(float64(attempt), 2) + float64(randInt()%10)
	return time.Duration(wait) * time.Second
}

// Retry runs f up to retry+1 times and stops early on success or when ctx is done.
// A nil backoff means DefaultBackoff.
func Retry(ctx context.Context, retry int, backoff Backoff, f func() error) error {
	if backoff == nil {
		backoff = DefaultBackoff
	}
	var err error
	for i := 0; i <= retry; i++ {
		if i > 0 {
			wait := backoff(i)
			log.Printf("retry after %s", wait)
			select {
			case <-ctx.Done():
				return xerrors.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
		if err = ctx.Err(); err != nil {
			return xerrors.Errorf("retry aborted: %w", err)
		}
		if err = f(); err == nil {
			return nil
		}
		log.WithField("attempt", i+1).Debugf("attempt failed: %s", err)
	}
	return err
}

// FetchURL returns HTTP response body with retry
func FetchURL(ctx context.Context, url string, retry int, backoff Backoff) (res []byte, err error) {
	err = Retry(ctx, retry, backoff, func() error {
		var ferr error
		res, ferr = fetchURL(url)
		return ferr
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch URL: %w", err)
	}
	return res, nil
}

func randInt() int {
	seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	return int(seed.Int64())
}

func fetchURL(url string) ([]byte, error) {
	req := gorequest.New().Get(url)
	resp, body, errs := req.Type("text").EndBytes()
	if len(errs) > 0 {
		return nil, xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	if resp.StatusCode != 200 {
		return nil, xerrors.Errorf("HTTP error. status code: %d, url: %s", resp.StatusCode, url)
	}
	return body, nil
}

// TrimSpaceNewline deletes space character and newline character(CR/LF)
func TrimSpaceNewline(str string) string {
	str = strings.TrimSpace(str)
	return strings.Trim(str, "\r\n")
}

func LookupEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}
