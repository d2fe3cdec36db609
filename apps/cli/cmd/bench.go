package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
	"github.com/abdul-hamid-achik/httpconnect/packages/middleware"
)

var benchCmd = &cobra.Command{
	Use:   "bench <uri>",
	Short: "Send a batch of requests and report latency percentiles",
	Long: `Send the same request many times through the client pipeline and
report throughput, error rate and latency percentiles.

Examples:
  httpconnect bench https://api.example.com/health -n 500 -c 20
  httpconnect bench /users --rate 50 --max-p95 200ms
  httpconnect bench /users -X POST --json '{"name":"x"}' --output json`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchMethodFlag      string
	benchMaxP95Flag      time.Duration
	benchMaxErrorsFlag   float64
	benchOutputFlag      string
)

func init() {
	f := benchCmd.Flags()
	f.IntVarP(&benchRequestsFlag, "requests", "n", 100, "Total number of requests")
	f.IntVarP(&benchConcurrencyFlag, "concurrency", "c", 10, "Maximum concurrent requests")
	f.Float64VarP(&benchRateFlag, "rate", "r", 0, "Target requests per second (0 = unlimited, overrides config)")
	f.StringVarP(&benchMethodFlag, "method", "X", "GET", "Request method")
	f.DurationVar(&benchMaxP95Flag, "max-p95", 0, "Fail when the p95 latency exceeds this duration")
	f.Float64Var(&benchMaxErrorsFlag, "max-error-rate", 0, "Fail when the error rate (0-1) exceeds this value")
	f.StringVarP(&benchOutputFlag, "output", "o", "text", "Output format: text, json")
	f.StringArrayVarP(&headerFlags, "header", "H", nil, `Request header as "Name: value" (repeatable)`)
	f.StringVar(&jsonFlag, "json", "", "JSON body")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	if benchRequestsFlag < 1 || benchConcurrencyFlag < 1 {
		return withExitCode(ExitUsageError, fmt.Errorf("--requests and --concurrency must be positive"))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if benchRateFlag > 0 {
		cfg.RateLimit = benchRateFlag
		cfg.Burst = 1
	}

	metrics := middleware.NewMetrics()
	client, err := cfg.NewClient(newLogger(cmd.ErrOrStderr(), cfg.Verbose), metrics.Middleware())
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	// validate the request once up front
	if _, err := buildRequest(strings.ToUpper(benchMethodFlag), args[0]); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runBench(ctx, client, strings.ToUpper(benchMethodFlag), args[0], benchRequestsFlag, benchConcurrencyFlag)
	interrupted := errors.Is(err, errBenchInterrupted)
	if err != nil && !interrupted {
		return withExitCode(ExitPipelineError, err)
	}

	summary := metrics.Summary()
	if benchOutputFlag == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		if interrupted {
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("interrupted, partial results"))
		}
		printBenchSummary(cmd.OutOrStdout(), summary)
	}

	if interrupted {
		return withExitCode(ExitInterrupted, err)
	}
	if failures := benchThresholdFailures(summary); len(failures) > 0 {
		return withExitCode(ExitThresholdFailure, fmt.Errorf("thresholds failed: %s", strings.Join(failures, ", ")))
	}
	return nil
}

var errBenchInterrupted = errors.New("bench interrupted")

// runBench makes the given number of calls with at most concurrency in flight. It
// returns errBenchInterrupted when ctx ends before every call was made.
func runBench(ctx context.Context, client *httpc.Client, method, uri string, requests, concurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < requests && gctx.Err() == nil; i++ {
		g.Go(func() error {
			req, err := buildRequest(method, uri)
			if err != nil {
				return err
			}
			_, err = client.Send(gctx, req)
			return err
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return errBenchInterrupted
	}
	return err
}

func benchThresholdFailures(s *middleware.Summary) []string {
	var failures []string
	if benchMaxP95Flag > 0 && s.P95 > benchMaxP95Flag {
		failures = append(failures, fmt.Sprintf("p95 %s > %s", s.P95, benchMaxP95Flag))
	}
	if benchMaxErrorsFlag > 0 && s.ErrorRate > benchMaxErrorsFlag {
		failures = append(failures, fmt.Sprintf("error rate %.2f%% > %.2f%%", s.ErrorRate*100, benchMaxErrorsFlag*100))
	}
	return failures
}

func printBenchSummary(w io.Writer, s *middleware.Summary) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	errs := green(s.ErrorCount)
	if s.ErrorCount > 0 {
		errs = red(s.ErrorCount)
	}

	fmt.Fprintf(w, "%s\n", bold("Summary"))
	fmt.Fprintf(w, "  requests:  %d in %s (%.1f req/s)\n", s.TotalRequests, s.Elapsed.Round(time.Millisecond), s.RPS)
	fmt.Fprintf(w, "  success:   %s\n", green(s.SuccessCount))
	fmt.Fprintf(w, "  errors:    %s (%d timeouts, %.2f%%)\n", errs, s.TimeoutCount, s.ErrorRate*100)
	fmt.Fprintf(w, "%s\n", bold("Latency"))
	fmt.Fprintf(w, "  min %s  mean %s  max %s\n", s.Min, s.Mean.Round(time.Microsecond), s.Max)
	fmt.Fprintf(w, "  p50 %s  p95 %s  p99 %s\n", s.P50, s.P95, s.P99)

	names := make([]string, 0, len(s.Routes))
	for name := range s.Routes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := s.Routes[name]
		fmt.Fprintf(w, "  %s: %d ok, %d errors, p95 %s\n", name, r.Success, r.Errors, r.P95)
	}
}
