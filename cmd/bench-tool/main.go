package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dzidzitop/libafc/internal/config"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/logging"
	afcmemory "github.com/dzidzitop/libafc/internal/memory"
	"github.com/dzidzitop/libafc/internal/pool"
	"github.com/dzidzitop/libafc/internal/report"
)

// ErrChecksumMismatch reports policies that produced different bytes for
// the same records.
var ErrChecksumMismatch = errors.New("growth policies produced different output")

var envFile = flag.String("env", ".env", "Optional .env file read before the FASTBUF_* environment")

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Output: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	summary, err := run(context.Background(), &cfg, logger)
	if summary != nil {
		printResults(summary)
	}
	if err != nil {
		logger.Error().Err(err).Msg("bench failed")
		os.Exit(1)
	}
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// summary is what a run produced.
type summary struct {
	runID   string
	elapsed time.Duration
	results []report.Result
}

// run drives cfg.Workers workers until every one has serialized cfg.Records
// records under each configured policy or cfg.Duration elapses.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*summary, error) {
	alloc, closeAlloc := newAllocator(cfg)
	defer closeAlloc()

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	s := &summary{runID: uuid.NewString()}
	logger = logger.With().Str("run_id", s.runID).Logger()
	logger.Info().
		Str("policy", cfg.Policy).
		Str("allocator", cfg.Allocator).
		Int("workers", cfg.Workers).
		Int("records", cfg.Records).
		Msg("bench started")

	pow2Lines := pool.NewBufferPool[byte, growth.Pow2](0)
	exactLines := pool.NewBufferPool[byte, growth.Exact](0)

	var mu sync.Mutex
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		w := &workload{
			runID:   s.runID,
			worker:  i,
			records: cfg.Records,
			initial: cfg.InitialCapacity,
			alloc:   alloc,
			logger:  logger.With().Int("worker", i).Logger(),
		}
		g.Go(func() error {
			for _, policy := range cfg.Policies() {
				var res report.Result
				var err error
				switch policy {
				case "pow2":
					res, err = runPolicy(gctx, w, pow2Lines)
				case "exact":
					res, err = runPolicy(gctx, w, exactLines)
				}
				if err != nil {
					return fmt.Errorf("worker %d, %s: %w", w.worker, policy, err)
				}
				mu.Lock()
				s.results = append(s.results, res)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	s.elapsed = time.Since(start)
	if err != nil {
		return s, err
	}

	if err := verifyChecksums(s.results); err != nil {
		return s, err
	}

	if cfg.ReportPath != "" {
		if err := writeReport(cfg.ReportPath, s.results); err != nil {
			return s, err
		}
		logger.Info().Str("path", cfg.ReportPath).Int("rows", len(s.results)).Msg("report written")
	}

	logger.Info().Dur("elapsed", s.elapsed).Msg("bench finished")
	return s, nil
}

// newAllocator returns the configured storage allocator and its cleanup.
func newAllocator(cfg *config.Config) (memory.Allocator, func()) {
	switch cfg.Allocator {
	case "arena":
		a := afcmemory.NewArenaAllocator(cfg.ArenaChunkSize)
		return a, a.Release
	case "slab":
		return afcmemory.NewSlabAllocator(0), func() {}
	case "tracking":
		return afcmemory.NewTrackingAllocator(nil), func() {}
	case "limited":
		return afcmemory.NewLimitedAllocator(nil, cfg.MemoryLimit), func() {}
	default:
		return memory.DefaultAllocator, func() {}
	}
}

// verifyChecksums checks that every policy a worker ran produced the same
// bytes. Workers cut short by the deadline are compared only on equal
// record counts.
func verifyChecksums(results []report.Result) error {
	type key struct {
		worker  int32
		records int64
	}
	seen := make(map[key]report.Result)
	for _, r := range results {
		k := key{r.Worker, r.Records}
		prev, ok := seen[k]
		if !ok {
			seen[k] = r
			continue
		}
		if prev.Checksum != r.Checksum || prev.Bytes != r.Bytes {
			return fmt.Errorf("%w: worker %d, %s=%x %s=%x", ErrChecksumMismatch,
				r.Worker, prev.Policy, prev.Checksum, r.Policy, r.Checksum)
		}
	}
	return nil
}

func writeReport(path string, results []report.Result) error {
	b := report.NewBuilder(memory.DefaultAllocator)
	defer b.Release()
	for _, r := range results {
		b.Append(r)
	}
	rec := b.NewRecord()
	defer rec.Release()
	return report.WriteFile(path, rec)
}

func printResults(s *summary) {
	totals := make(map[string]*report.Result)
	for i := range s.results {
		r := &s.results[i]
		t, ok := totals[r.Policy]
		if !ok {
			t = &report.Result{Policy: r.Policy}
			totals[r.Policy] = t
		}
		t.Records += r.Records
		t.Bytes += r.Bytes
		t.Grows += r.Grows
		t.DurationNanos += r.DurationNanos
	}

	fmt.Println("\n--- Results ---")
	fmt.Printf("Run:         %s\n", s.runID)
	fmt.Printf("Elapsed:     %.2fs\n", s.elapsed.Seconds())
	for _, policy := range []string{"pow2", "exact"} {
		t, ok := totals[policy]
		if !ok {
			continue
		}
		var throughput float64
		if t.DurationNanos > 0 {
			throughput = float64(t.Bytes) / time.Duration(t.DurationNanos).Seconds() / (1 << 20)
		}
		fmt.Printf("%-6s       records=%d bytes=%d grows=%d throughput=%.2f MiB/s\n",
			t.Policy, t.Records, t.Bytes, t.Grows, throughput)
	}
}
