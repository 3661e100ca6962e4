package excludes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/thoreinstein/rsnap/internal/config"
	"github.com/thoreinstein/rsnap/internal/errors"
	"github.com/thoreinstein/rsnap/internal/paths"
	"github.com/thoreinstein/rsnap/internal/redact"
	"github.com/thoreinstein/rsnap/pkg/fileutil"
)

// LocalMarker separates the remote list from locally configured patterns.
const LocalMarker = "# local excludes"

// DefaultTimeout bounds a single fetch when no client is supplied.
const DefaultTimeout = 30 * time.Second

// FetchError reports a failed exclude list download.
// It matches errors.ErrExcludeFetch.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	u := redact.MaskURL(e.URL)
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", u, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status %d", u, e.Status)
}

// Is reports whether target is ErrExcludeFetch.
func (e *FetchError) Is(target error) bool {
	return target == errors.ErrExcludeFetch
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads exclude lists.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// NewFetcher creates a Fetcher. A nil client gets a default client with
// DefaultTimeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Fetcher{client: client, maxSize: fileutil.MaxDownloadSize}
}

// Fetch performs a GET on url and returns the body. Any status other than
// 200 is a failure. All failures are *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := fileutil.ReadAllWithLimit(resp.Body, f.maxSize)
	if err != nil {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}
	return body, nil
}

// Render assembles the exclude file contents from the remote body and the
// local patterns. Blank local patterns are dropped.
func Render(remote []byte, local []string) []byte {
	var b strings.Builder
	if len(remote) > 0 {
		b.Write(remote)
		if remote[len(remote)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	b.WriteString(LocalMarker)
	b.WriteByte('\n')
	for _, p := range local {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Write atomically replaces path with the rendered exclude list, creating
// the parent directory when needed.
func Write(path string, remote []byte, local []string) error {
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	if err := fileutil.AtomicWriteFile(path, Render(remote, local), 0o644); err != nil {
		return errors.Wrapf(err, "writing exclude file %s", path)
	}
	return nil
}

// Refresh rebuilds the exclude file described by cfg and returns the path
// to hand to rsync. It returns an empty path when neither an exclude URL
// nor local excludes are configured.
func Refresh(ctx context.Context, f *Fetcher, cfg *config.Config, logger *slog.Logger) (string, error) {
	if !cfg.ExcludesEnabled() {
		logger.Debug("no excludes configured")
		return "", nil
	}

	var remote []byte
	if cfg.ExcludeURL != "" {
		body, err := f.Fetch(ctx, cfg.ExcludeURL)
		if err != nil {
			return "", err
		}
		remote = body
		logger.Debug("fetched exclude list", "bytes", len(body))
	}

	if err := Write(cfg.ExcludeFile, remote, cfg.Excludes); err != nil {
		return "", err
	}
	logger.Info("exclude file updated", "path", cfg.ExcludeFile, "local", len(cfg.Excludes))
	return cfg.ExcludeFile, nil
}
