package tracker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker tracks usage statistics per provider and mirrors them as Prometheus metrics.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*ProviderStats

	requests      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	tracksLoaded  prometheus.Gauge
	missingHours  prometheus.Gauge
	invalidPoints prometheus.Counter
}

// ProviderStats holds metrics for a specific provider.
// Fields are accessed atomically.
type ProviderStats struct {
	CacheHits   int64
	CacheMisses int64
	APISuccess  int64
	APIFailures int64
}

// New creates a new Tracker. Its collectors are not exported until Register is called.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*ProviderStats),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftwatch_upstream_requests_total",
			Help: "Upstream HTTP requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftwatch_cache_lookups_total",
			Help: "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		tracksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "driftwatch_tracks_loaded",
			Help: "Number of balloon tracks assembled by the last successful load.",
		}),
		missingHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "driftwatch_feed_missing_hours",
			Help: "Hourly snapshots that could not be fetched in the last load.",
		}),
		invalidPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwatch_invalid_points_total",
			Help: "Feed entries rejected by point validation.",
		}),
	}
}

// Register exports the tracker's collectors. Collectors that are already registered
// with a compatible type are reused.
func (t *Tracker) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var err error
	if t.requests, err = register(reg, t.requests); err != nil {
		return err
	}
	if t.cacheLookups, err = register(reg, t.cacheLookups); err != nil {
		return err
	}
	if t.tracksLoaded, err = register(reg, t.tracksLoaded); err != nil {
		return err
	}
	if t.missingHours, err = register(reg, t.missingHours); err != nil {
		return err
	}
	if t.invalidPoints, err = register(reg, t.invalidPoints); err != nil {
		return err
	}
	return nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			return c, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return c, err
	}
	return c, nil
}

// getStats returns the stats object for a provider, creating it if needed.
func (t *Tracker) getStats(provider string) *ProviderStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &ProviderStats{}
	t.stats[provider] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheHits, 1)
	t.cacheLookups.WithLabelValues(provider, "hit").Inc()
}

func (t *Tracker) TrackCacheMiss(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheMisses, 1)
	t.cacheLookups.WithLabelValues(provider, "miss").Inc()
}

func (t *Tracker) TrackAPISuccess(provider string) {
	atomic.AddInt64(&t.getStats(provider).APISuccess, 1)
	t.requests.WithLabelValues(provider, "success").Inc()
}

func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIFailures, 1)
	t.requests.WithLabelValues(provider, "failure").Inc()
}

// TrackLoad records the outcome of a feed load cycle.
func (t *Tracker) TrackLoad(tracks, missingHours, invalidPoints int) {
	t.tracksLoaded.Set(float64(tracks))
	t.missingHours.Set(float64(missingHours))
	t.invalidPoints.Add(float64(invalidPoints))
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats)
	for k, v := range t.stats {
		result[k] = ProviderStats{
			CacheHits:   atomic.LoadInt64(&v.CacheHits),
			CacheMisses: atomic.LoadInt64(&v.CacheMisses),
			APISuccess:  atomic.LoadInt64(&v.APISuccess),
			APIFailures: atomic.LoadInt64(&v.APIFailures),
		}
	}
	return result
}
