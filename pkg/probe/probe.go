package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"driftwatch/pkg/feed"
	"driftwatch/pkg/wind"
)

// DefaultTimeout bounds a check whose Probe sets none.
const DefaultTimeout = 10 * time.Second

// CheckFunc returns nil when the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // a failure prevents startup
	Timeout  time.Duration
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
	}

	return results
}

// AnalyzeResults logs every result and joins the errors of failed critical probes.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}

		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		if r.Error != nil {
			slog.Error(msg, "error", r.Error)
			if r.Probe.Critical {
				criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
			}
		} else {
			slog.Info(msg)
		}
	}

	return errors.Join(criticalErrors...)
}

// Feed checks that the newest hour of the feed can be fetched and parsed.
func Feed(src feed.Source, critical bool) Probe {
	return Probe{
		Name:     "Balloon feed",
		Critical: critical,
		Check: func(ctx context.Context) error {
			body, err := src.Fetch(ctx, 0)
			if err != nil {
				return err
			}
			snap, err := feed.ParseSnapshot(0, body)
			if err != nil {
				return err
			}
			if snap.Valid() == 0 {
				return errors.New("hour 00 has no valid points")
			}
			return nil
		},
	}
}

// Wind checks that the wind field answers a query over open ocean.
func Wind(f wind.Field) Probe {
	return Probe{
		Name: "Wind field",
		Check: func(ctx context.Context) error {
			_, err := f.At(ctx, 0, -30, 15)
			return err
		},
	}
}
