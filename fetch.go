package imgdl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FetchAndSave ensures the destination directory exists and is writable,
// issues the HTTP GET with the configured retry budget, validates that the
// response is an image, and streams it to target.Path. Partially written
// files are removed on failure.
//
// The destination is opened with O_EXCL; when another writer created the
// file since resolution, the collision suffix is bumped and target.Name /
// target.Path are updated before the successful return.
func (cfg *Config) FetchAndSave(ctx context.Context, target *ImageTarget, opts Options) (*ImageTarget, error) {
	cfg.defaults()

	if err := ensureDirectory(target.Directory); err != nil {
		return nil, err
	}

	maxRetry := opts.MaxRetry
	if maxRetry == 0 {
		maxRetry = DefaultMaxRetry
	}
	if maxRetry < 0 {
		maxRetry = 0
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetry; attempt++ {
		if attempt > 0 {
			slog.Debug("imgdl: retrying", "url", target.URL, "attempt", attempt)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, &FetchError{URL: target.URL, Err: ctx.Err()}
			}
		}

		lastErr = cfg.fetchOnce(ctx, target, opts, timeout)
		if lastErr == nil {
			return target, nil
		}
		if !retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// ensureDirectory creates dir if missing and probes that it is writable.
// The two failure modes surface as distinct DirectoryError values.
func ensureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &DirectoryError{Path: dir, Err: fmt.Errorf("cannot create: %w", err)}
	}
	probe, err := os.CreateTemp(dir, ".imgdl-probe-*")
	if err != nil {
		return &DirectoryError{Path: dir, Err: fmt.Errorf("not writable: %w", err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// fetchOnce performs a single request/stream attempt.
func (cfg *Config) fetchOnce(ctx context.Context, target *ImageTarget, opts Options, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return &FetchError{URL: target.URL, Err: err}
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	for key, values := range opts.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := cfg.HTTPClient.Do(req) //nolint:gosec // G704: URL is caller-supplied by design — SSRF is caller's responsibility
	if err != nil {
		return &FetchError{URL: target.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{
			URL:        target.URL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	ct := resp.Header.Get("Content-Type")
	// Strip MIME parameters: "image/jpeg; charset=utf-8" → "image/jpeg"
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") {
		return &FetchError{URL: target.URL, Err: ErrNotImage}
	}

	return saveBody(target, resp.Body)
}

// saveBody streams body into an exclusively created file at target.Path,
// transcoding when the requested extension's format differs from the
// source. The partial file is removed on any failure.
func saveBody(target *ImageTarget, body io.Reader) error {
	f, err := createExclusive(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target.Path, err)
	}

	if shouldTranscode(target) {
		err = transcode(f, body, target.Extension)
	} else {
		_, err = io.Copy(f, body)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target.Path)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &FetchError{URL: target.URL, Err: err}
		}
		return fmt.Errorf("write %s: %w", target.Path, err)
	}

	slog.Debug("imgdl: saved", "url", target.URL, "path", target.Path)
	return nil
}

// createExclusive opens target.Path with O_EXCL, bumping the collision
// suffix until the create succeeds. This closes the check-then-act window
// left by Resolve's advisory existence probe.
func createExclusive(target *ImageTarget) (*os.File, error) {
	for {
		f, err := os.OpenFile(target.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		target.Name = nextSuffix(target.Name)
		target.Path = filepath.Join(target.Directory, target.Name+"."+target.Extension)
	}
}

// retryable reports whether another attempt could succeed: transport-level
// failures and 5xx/429 responses qualify; 4xx, non-image responses, and
// cancellation do not.
func retryable(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}
	if fetchErr.StatusCode != 0 {
		return fetchErr.StatusCode >= 500 || fetchErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(fetchErr.Err, ErrNotImage) || errors.Is(fetchErr.Err, context.Canceled) {
		return false
	}
	return true
}
