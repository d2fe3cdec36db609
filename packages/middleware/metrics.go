package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// latency bounds in microseconds: 1us to 60s
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects call counts and latency percentiles for the calls that
// pass through its middleware.
type Metrics struct {
	mu sync.RWMutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	histogram *hdrhistogram.Histogram
	byName    map[string]*RouteMetrics

	startTime time.Time
	nameFunc  func(*httpc.Context) string
}

// RouteMetrics holds metrics for one named group of calls.
type RouteMetrics struct {
	Name      string
	Total     atomic.Int64
	Success   atomic.Int64
	Errors    atomic.Int64
	Histogram *hdrhistogram.Histogram
	mu        sync.Mutex
}

// NewMetrics creates a collector. Calls are grouped by method and path.
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: newHistogram(),
		byName:    make(map[string]*RouteMetrics),
		startTime: time.Now(),
		nameFunc:  methodAndPath,
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
}

func methodAndPath(hc *httpc.Context) string {
	if hc.Request.URI == nil {
		return hc.Request.Method
	}
	return hc.Request.Method + " " + hc.Request.URI.Path
}

// Middleware records the latency and outcome of every call. A call counts
// as an error when a stage fails or the status code is 5xx, and as a
// timeout when the failure wraps a context error.
func (m *Metrics) Middleware() httpc.Middleware {
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			start := time.Now()
			err := next(hc)

			if isContextError(err) {
				m.RecordTimeout(m.nameFunc(hc))
				return err
			}
			outcome := err
			if outcome == nil && hc.Response != nil && hc.Response.StatusCode >= 500 {
				outcome = errServerStatus
			}
			m.Record(m.nameFunc(hc), time.Since(start), outcome)
			return err
		}
	}
}

// isContextError reports whether err comes from a cancelled or expired
// context. Inner stages may have restored the parent context by the time
// the error gets here, so hc.Err() is not enough.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

type statusError string

func (e statusError) Error() string { return string(e) }

const errServerStatus = statusError("server error status")

// Record records a call result
func (m *Metrics) Record(name string, duration time.Duration, err error) {
	m.totalRequests.Add(1)
	if err != nil {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	latencyUs := clampLatency(duration)

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.mu.Unlock()

	if name == "" {
		return
	}
	rm := m.route(name)
	rm.Total.Add(1)
	if err != nil {
		rm.Errors.Add(1)
	} else {
		rm.Success.Add(1)
	}
	rm.mu.Lock()
	_ = rm.Histogram.RecordValue(latencyUs)
	rm.mu.Unlock()
}

// RecordTimeout records a cancelled or timed out call. Timeouts count as errors.
func (m *Metrics) RecordTimeout(name string) {
	m.totalRequests.Add(1)
	m.timeoutRequests.Add(1)
	m.errorRequests.Add(1)

	if name != "" {
		rm := m.route(name)
		rm.Total.Add(1)
		rm.Errors.Add(1)
	}
}

func (m *Metrics) route(name string) *RouteMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.byName[name]
	if !ok {
		rm = &RouteMetrics{Name: name, Histogram: newHistogram()}
		m.byName[name] = rm
	}
	return rm
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	return us
}

// Summary is a point-in-time view of the collected metrics
type Summary struct {
	Elapsed       time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS       float64
	ErrorRate float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	Routes map[string]*RouteSummary
}

// RouteSummary holds the summary for one group of calls
type RouteSummary struct {
	Name    string
	Total   int64
	Success int64
	Errors  int64
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
	Mean    time.Duration
}

func usToDuration(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Summary returns the metrics collected so far.
func (m *Metrics) Summary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.startTime)
	total := m.totalRequests.Load()
	errs := m.errorRequests.Load()

	s := &Summary{
		Elapsed:       elapsed,
		TotalRequests: total,
		SuccessCount:  m.successRequests.Load(),
		ErrorCount:    errs,
		TimeoutCount:  m.timeoutRequests.Load(),
		P50:           usToDuration(m.histogram.ValueAtQuantile(50)),
		P95:           usToDuration(m.histogram.ValueAtQuantile(95)),
		P99:           usToDuration(m.histogram.ValueAtQuantile(99)),
		Min:           usToDuration(m.histogram.Min()),
		Max:           usToDuration(m.histogram.Max()),
		Mean:          time.Duration(m.histogram.Mean() * float64(time.Microsecond)),
		StdDev:        time.Duration(m.histogram.StdDev() * float64(time.Microsecond)),
		Routes:        make(map[string]*RouteSummary, len(m.byName)),
	}
	if elapsed.Seconds() > 0 {
		s.RPS = float64(total) / elapsed.Seconds()
	}
	if total > 0 {
		s.ErrorRate = float64(errs) / float64(total)
	}

	for name, rm := range m.byName {
		rm.mu.Lock()
		s.Routes[name] = &RouteSummary{
			Name:    name,
			Total:   rm.Total.Load(),
			Success: rm.Success.Load(),
			Errors:  rm.Errors.Load(),
			P50:     usToDuration(rm.Histogram.ValueAtQuantile(50)),
			P95:     usToDuration(rm.Histogram.ValueAtQuantile(95)),
			P99:     usToDuration(rm.Histogram.ValueAtQuantile(99)),
			Mean:    time.Duration(rm.Histogram.Mean() * float64(time.Microsecond)),
		}
		rm.mu.Unlock()
	}
	return s
}

// Reset clears all collected metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests.Store(0)
	m.successRequests.Store(0)
	m.errorRequests.Store(0)
	m.timeoutRequests.Store(0)
	m.histogram.Reset()
	m.byName = make(map[string]*RouteMetrics)
	m.startTime = time.Now()
}
