package cli

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/download"
	"github.com/glorpus-work/fetchcache/pkg/fsutil"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// shutdownGrace bounds how long fetch waits for deliveries and cache GC before exiting.
const shutdownGrace = 5 * time.Second

type fetchOptions struct {
	kind    string
	copies  int
	out     string
	headers []string
}

// fetchResult is one delivered outcome.
type fetchResult struct {
	URL     string `json:"url"`
	Copy    int    `json:"copy"`
	OK      bool   `json:"ok"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`

	value any
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	opts := fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch resources through the cache",
		Long: `Fetch one or more URLs through the coalescing coordinator.
Each URL is dispatched --copies times concurrently; copies of the same URL share
a single network transfer and all receive the same outcome.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", request.KindRaw.String(), "Payload kind (raw, image, json)")
	cmd.Flags().IntVarP(&opts.copies, "copies", "n", DefaultCopies, "Concurrent subscribers per URL")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the fetched payload to FILE (single URL only)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Extra request header as 'Name: value'")

	return cmd
}

func newFetchRequest(url string, kind request.Kind, copyIndex int, headers []request.Header) (*request.Request[int], error) {
	var (
		req *request.Request[int]
		err error
	)
	switch kind {
	case request.KindImage:
		req, err = request.NewImage(url, copyIndex)
	case request.KindJSON:
		req, err = request.NewJSON(url, copyIndex)
	default:
		req, err = request.New(url, copyIndex)
	}
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		req = req.WithHeader(h.Name, h.Value)
	}
	return req, nil
}

func parseHeaders(raw []string) ([]request.Header, error) {
	headers := make([]request.Header, 0, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers = append(headers, request.Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers, nil
}

func runFetch(cmd *cobra.Command, urls []string, opts fetchOptions) error {
	kind, err := request.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	if opts.copies < 1 {
		return fmt.Errorf("--copies must be at least 1, got %d", opts.copies)
	}
	if opts.out != "" && len(urls) != 1 {
		return fmt.Errorf("--out requires exactly one URL, got %d", len(urls))
	}
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := newStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close(shutdownGrace)
	coordinator := st.coordinator(kind)

	var (
		mu      sync.Mutex
		results []fetchResult
		wg      sync.WaitGroup
	)
	record := func(r fetchResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		wg.Done()
	}

	for _, url := range urls {
		for i := 0; i < opts.copies; i++ {
			req, err := newFetchRequest(url, kind, i, headers)
			if err != nil {
				return err
			}

			wg.Add(1)
			sub := download.SubscriberFuncs[any, int]{
				Success: func(value any, req *request.Request[int]) {
					record(fetchResult{URL: req.URL, Copy: req.Metadata, OK: true, Summary: describe(value), value: value})
				},
				Failure: func(_ any, req *request.Request[int], err error) {
					record(fetchResult{URL: req.URL, Copy: req.Metadata, Error: err.Error()})
				},
			}
			if err := coordinator.Dispatch(req, sub); err != nil {
				record(fetchResult{URL: url, Copy: i, Error: err.Error()})
			}
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].URL != results[j].URL {
			return results[i].URL < results[j].URL
		}
		return results[i].Copy < results[j].Copy
	})

	stats := coordinator.Stats()
	logger.Info("Fetch completed", logger.Fields{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"fetches":   stats.Fetches,
		"coalesced": stats.Coalesced,
		"failures":  stats.Failures,
	})

	if err := printResults(cmd, cfg.Settings.OutputFormat == "json", results); err != nil {
		return err
	}

	if opts.out != "" {
		if err := writeOut(opts.out, results); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

func printResults(cmd *cobra.Command, asJSON bool, results []fetchResult) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	for _, r := range results {
		status, detail := "OK", r.Summary
		if !r.OK {
			status, detail = "FAIL", r.Error
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t#%d\t%s\n", status, r.URL, r.Copy, detail)
	}
	return tabWriter.Flush()
}

func writeOut(path string, results []fetchResult) error {
	for _, r := range results {
		if !r.OK {
			continue
		}
		data, err := encodeValue(r.value)
		if err != nil {
			return err
		}
		if err := fsutil.WriteFileAtomic(path, data, fsutil.FileModeDefault); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Success("Payload written", logger.Fields{"path": path, "bytes": len(data)})
		return nil
	}
	return fmt.Errorf("nothing to write to %s: no request succeeded", path)
}
