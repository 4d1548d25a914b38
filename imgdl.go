// Package imgdl downloads images from HTTP(S) URLs to local disk.
//
// The package resolves a URL plus optional naming/directory options into a
// validated, collision-free destination path (Resolve), streams a single
// image to disk (FetchAndSave), and fans out whole batches under a bounded
// concurrency cap with pacing, per-item callbacks, and cooperative
// cancellation (DownloadBatch).
package imgdl

import (
	"context"
	"net/http"
	"time"
)

// Defaults applied when the corresponding Options field is zero.
const (
	// DefaultName is the filename stem used when neither the options nor
	// the URL path provide one.
	DefaultName = "image"

	// DefaultExtension is used when neither the options nor the URL path
	// provide an extension.
	DefaultExtension = "jpg"

	// DefaultMaxRetry is the HTTP retry budget for a single download.
	DefaultMaxRetry = 2

	// DefaultStep is the batch concurrency cap.
	DefaultStep = 5

	// DefaultInterval is the batch admission cadence.
	DefaultInterval = 100 * time.Millisecond

	defaultTimeout = 10 * time.Second
	retryDelay     = 500 * time.Millisecond
)

// Config holds dependencies injected by the consumer. The zero value is
// ready to use.
type Config struct {
	HTTPClient *http.Client // optional: default http client (nil = http.DefaultClient)
	UserAgent  string       // default: "Mozilla/5.0 (compatible; go-imgdl/1.0)"
}

// defaults fills zero-value fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; go-imgdl/1.0)"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
}

// Options configures resolution, download, and batch behavior.
// Zero values mean "use defaults".
type Options struct {
	Directory string        // output directory (default: current working directory)
	Name      string        // output filename stem (default: name from URL, or "image")
	Extension string        // output format/extension (default: extension from URL, or "jpg")
	Headers   http.Header   // extra HTTP request headers
	MaxRetry  int           // HTTP retry budget (default: 2, negative = no retries)
	Timeout   time.Duration // per-request timeout (default: 10s)

	Step     int           // batch concurrency cap (default: 5)
	Interval time.Duration // batch admission interval (default: 100ms, negative = no pacing)

	// OnSuccess is invoked for every item a batch downloads successfully.
	// Completion order is unspecified.
	OnSuccess func(*ImageTarget)

	// OnError is invoked with the failed item's error and URL. Per-item
	// fetch and write failures never fail the batch as a whole.
	OnError func(err error, url string)
}

// Item is one entry of a batch download. Its non-zero fields override the
// batch-level Options field-by-field.
type Item struct {
	URL       string
	Directory string
	Name      string
	Extension string
}

// Merge layers the item's non-zero option fields over batch-level options.
// Batch-only fields (Step, Interval, callbacks) always come from the batch
// level.
func (it Item) Merge(batch Options) Options {
	opts := batch
	if it.Directory != "" {
		opts.Directory = it.Directory
	}
	if it.Name != "" {
		opts.Name = it.Name
	}
	if it.Extension != "" {
		opts.Extension = it.Extension
	}
	return opts
}

// Download resolves rawURL and streams the image to disk. It returns the raw
// error (ArgumentError, DirectoryError, or FetchError) on failure.
func (cfg *Config) Download(ctx context.Context, rawURL string, opts Options) (*ImageTarget, error) {
	target, err := cfg.Resolve(rawURL, opts)
	if err != nil {
		return nil, err
	}
	return cfg.FetchAndSave(ctx, target, opts)
}

// DownloadAll downloads every URL as one batch. See DownloadBatch.
func (cfg *Config) DownloadAll(ctx context.Context, urls []string, opts Options) ([]*ImageTarget, error) {
	items := make([]Item, len(urls))
	for i, u := range urls {
		items[i] = Item{URL: u}
	}
	return cfg.DownloadBatch(ctx, items, opts)
}

// Download is a convenience wrapper over a zero-value Config.
func Download(ctx context.Context, rawURL string, opts Options) (*ImageTarget, error) {
	return (&Config{}).Download(ctx, rawURL, opts)
}

// DownloadAll is a convenience wrapper over a zero-value Config.
func DownloadAll(ctx context.Context, urls []string, opts Options) ([]*ImageTarget, error) {
	return (&Config{}).DownloadAll(ctx, urls, opts)
}
