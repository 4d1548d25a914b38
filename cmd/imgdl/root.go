package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	imgdl "github.com/anatolykoptev/go-imgdl"
)

type rootFlags struct {
	dir       string
	name      string
	ext       string
	headers   []string
	maxRetry  int
	timeout   time.Duration
	step      int
	interval  time.Duration
	file      string
	increment bool
	start     int
	end       int
	silent    bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	var fl rootFlags

	cmd := &cobra.Command{
		Use:   "imgdl [flags] <url>...",
		Short: "Download images from HTTP(S) URLs",
		Long: `Download one or more images from HTTP(S) URLs to local disk.

URLs are given as arguments, expanded from a {i} template with --increment,
or read from a bulk input file (--file) in TXT, CSV, or JSON format.
Per-item download failures in a batch are appended to error.log in the
output directory and do not change the exit code.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), fl, args)
		},
	}

	cmd.Flags().StringVarP(&fl.dir, "dir", "d", "", "output directory (default: current directory)")
	cmd.Flags().StringVarP(&fl.name, "name", "n", "", "output filename stem")
	cmd.Flags().StringVarP(&fl.ext, "ext", "e", "", "output image extension (jpg, png, webp, ...)")
	cmd.Flags().StringArrayVarP(&fl.headers, "header", "H", nil, `extra request header, "Key: Value" (repeatable)`)
	cmd.Flags().IntVar(&fl.maxRetry, "max-retry", 0, "HTTP retry budget per image (default 2)")
	cmd.Flags().DurationVarP(&fl.timeout, "timeout", "t", 0, "per-request timeout (default 10s)")
	cmd.Flags().IntVar(&fl.step, "step", 0, "batch concurrency cap (default 5)")
	cmd.Flags().DurationVar(&fl.interval, "interval", 0, "batch admission interval (default 100ms)")
	cmd.Flags().StringVarP(&fl.file, "file", "f", "", "bulk input file (.txt, .csv, or .json)")
	cmd.Flags().BoolVarP(&fl.increment, "increment", "i", false, "substitute {i} in the URL template with a counter")
	cmd.Flags().IntVar(&fl.start, "start", 0, "first counter value for --increment")
	cmd.Flags().IntVar(&fl.end, "end", 0, "last counter value for --increment")
	cmd.Flags().BoolVarP(&fl.silent, "silent", "s", false, "no progress bar, no summary")
	cmd.Flags().BoolVarP(&fl.verbose, "verbose", "v", false, "debug logging, image details after each download")

	return cmd
}

func run(ctx context.Context, fl rootFlags, args []string) error {
	setupLogging(fl)

	opts, err := fl.options()
	if err != nil {
		return err
	}
	items, err := collectItems(fl, args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &imgdl.ArgumentError{Msg: "no URLs given"}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &imgdl.Config{}

	if len(items) == 1 {
		img, err := cfg.Download(ctx, items[0].URL, items[0].Merge(opts))
		if err != nil {
			return err
		}
		reportImage(img, fl)
		if !fl.silent {
			fmt.Println(img.Path)
		}
		return nil
	}

	return runBatch(ctx, cfg, items, opts, fl)
}

func runBatch(ctx context.Context, cfg *imgdl.Config, items []imgdl.Item, opts imgdl.Options, fl rootFlags) error {
	bar := newBar(len(items), fl.silent)
	elog := newErrorLog(opts.Directory)
	defer elog.close()

	var succeeded, failed atomic.Int64
	opts.OnSuccess = func(img *imgdl.ImageTarget) {
		succeeded.Add(1)
		_ = bar.Add(1)
		reportImage(img, fl)
	}
	opts.OnError = func(err error, url string) {
		failed.Add(1)
		_ = bar.Add(1)
		elog.append(url, err)
	}

	_, err := cfg.DownloadBatch(ctx, items, opts)
	_ = bar.Finish()

	if !fl.silent {
		fmt.Printf("Done: %d downloaded, %d failed\n", succeeded.Load(), failed.Load())
	}
	return err
}

// options translates flags into batch-level Options. Header flags use the
// curl convention "Key: Value".
func (fl rootFlags) options() (imgdl.Options, error) {
	opts := imgdl.Options{
		Directory: fl.dir,
		Name:      fl.name,
		Extension: fl.ext,
		MaxRetry:  fl.maxRetry,
		Timeout:   fl.timeout,
		Step:      fl.step,
		Interval:  fl.interval,
	}
	for _, h := range fl.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return opts, &imgdl.ArgumentError{Msg: fmt.Sprintf("malformed header %q, want \"Key: Value\"", h)}
		}
		if opts.Headers == nil {
			opts.Headers = http.Header{}
		}
		opts.Headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return opts, nil
}

// collectItems gathers the batch from the bulk file, the {i} template, or
// plain URL arguments, in that precedence order.
func collectItems(fl rootFlags, args []string) ([]imgdl.Item, error) {
	if fl.file != "" {
		if len(args) > 0 {
			return nil, &imgdl.ArgumentError{Msg: "--file cannot be combined with URL arguments"}
		}
		return parseInputFile(fl.file)
	}

	if fl.increment {
		var items []imgdl.Item
		for _, arg := range args {
			urls, err := expandTemplate(arg, fl.start, fl.end)
			if err != nil {
				return nil, err
			}
			for _, u := range urls {
				items = append(items, imgdl.Item{URL: u})
			}
		}
		return items, nil
	}

	items := make([]imgdl.Item, len(args))
	for i, arg := range args {
		items[i] = imgdl.Item{URL: arg}
	}
	return items, nil
}

func setupLogging(fl rootFlags) {
	level := slog.LevelWarn
	switch {
	case fl.verbose:
		level = slog.LevelDebug
	case fl.silent:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func reportImage(img *imgdl.ImageTarget, fl rootFlags) {
	if !fl.verbose {
		return
	}
	if info := imgdl.DescribeImage(img.Path); info != nil {
		slog.Debug("imgdl: downloaded",
			"path", img.Path, "format", info.Format,
			"width", info.Width, "height", info.Height,
			"created", info.Created, "artist", info.Artist)
	}
}

func newBar(total int, silent bool) *progressbar.ProgressBar {
	if silent {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
