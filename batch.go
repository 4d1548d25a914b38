package imgdl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DownloadBatch downloads every item under a bounded-concurrency scheduler:
// at most opts.Step requests in flight, new tasks admitted at the
// opts.Interval cadence, admission following input order. Completion order
// is unspecified.
//
// Per-item fetch and write failures are delivered to opts.OnError and never
// fail the batch. An ArgumentError or DirectoryError on any item is fatal:
// admission stops, in-flight work is cancelled, and the error is returned
// once every outstanding task has settled. Cancelling ctx stops admission,
// aborts in-flight requests (surfacing through OnError), and returns the
// successes collected so far with a nil error.
func (cfg *Config) DownloadBatch(ctx context.Context, items []Item, opts Options) ([]*ImageTarget, error) {
	cfg.defaults()

	step := opts.Step
	if step == 0 {
		step = DefaultStep
	}
	if step < 0 {
		return nil, argErrorf("invalid step %d: must be positive", opts.Step)
	}
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(step))
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	var mu sync.Mutex
	var results []*ImageTarget

	// In-batch collision counter; the filesystem probe in Resolve only sees
	// files that existed before the batch started.
	seen := make(map[string]int)

	var fatal error
	for _, item := range items {
		item := item
		if err := limiter.Wait(gctx); err != nil {
			break // cancelled, or a task returned a fatal error
		}

		merged := item.Merge(opts)
		target, err := cfg.Resolve(item.URL, merged)
		if err != nil {
			fatal = err
			break
		}
		bumpBatchName(seen, target)

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			img, err := cfg.FetchAndSave(gctx, target, merged)
			if err != nil {
				if isFatal(err) {
					return err
				}
				slog.Debug("imgdl: item failed", "url", item.URL, "error", err)
				if opts.OnError != nil {
					opts.OnError(err, item.URL)
				}
				return nil
			}

			mu.Lock()
			results = append(results, img)
			mu.Unlock()
			if opts.OnSuccess != nil {
				opts.OnSuccess(img)
			}
			return nil
		})
	}

	err := g.Wait()
	if fatal != nil {
		return results, fatal
	}
	return results, err
}

// bumpBatchName suffixes repeated (directory, name, extension) keys within
// one batch. Called from the sequential admission loop only.
func bumpBatchName(seen map[string]int, target *ImageTarget) {
	key := strings.ToLower(target.Directory + "\x00" + target.Name + "\x00" + target.Extension)
	n := seen[key]
	seen[key] = n + 1
	if n > 0 {
		target.Name = fmt.Sprintf("%s (%d)", target.Name, n)
		target.Path = filepath.Join(target.Directory, target.Name+"."+target.Extension)
	}
}
