// Package fleet runs the load cycle: fetch every hourly snapshot, assemble
// tracks and publish the result as the current fleet.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"driftwatch/pkg/feed"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/model"
	"driftwatch/pkg/track"
	"driftwatch/pkg/tracker"
)

// ErrBusy is returned by Load while another load is running.
var ErrBusy = errors.New("load already in progress")

// Snapshot is one published load. It is never modified after publication.
type Snapshot struct {
	LoadID         string           `json:"load_id"`
	LoadedAt       time.Time        `json:"loaded_at"`
	Tracks         []model.Track    `json:"-"`
	ObjectCount    int              `json:"object_count"`
	InvalidPoints  []track.PointRef `json:"invalid_points"`
	MissingHours   []int            `json:"missing_hours"`
	LengthMismatch []int            `json:"length_mismatch,omitempty"`
}

// Track looks up a balloon by id.
func (s *Snapshot) Track(id int) (*model.Track, bool) {
	return track.Find(s.Tracks, id)
}

// Service owns the current snapshot.
type Service struct {
	src      feed.Source
	tracker  *tracker.Tracker
	interval time.Duration
	now      func() time.Time

	current atomic.Pointer[Snapshot]
	lastErr atomic.Pointer[error]
	running atomic.Bool
}

// New creates a service reading from src. A zero interval means hourly.
func New(src feed.Source, t *tracker.Tracker, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	if t == nil {
		t = tracker.New()
	}
	return &Service{src: src, tracker: t, interval: interval, now: time.Now}
}

// Load runs one cycle. On failure the previous snapshot stays current.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	id := uuid.NewString()
	log := slog.With("component", "fleet", "load_id", id)
	start := s.now()

	snaps, err := feed.FetchAll(ctx, s.src)
	if err != nil {
		return nil, s.fail(log, id, fmt.Errorf("fetch: %w", err))
	}
	asm, err := track.Assemble(snaps, start)
	if err != nil {
		return nil, s.fail(log, id, err)
	}

	snap := &Snapshot{
		LoadID:         id,
		LoadedAt:       start,
		Tracks:         asm.Tracks,
		ObjectCount:    asm.ObjectCount,
		InvalidPoints:  asm.InvalidPoints,
		MissingHours:   asm.MissingHours,
		LengthMismatch: asm.LengthMismatch,
	}
	s.current.Store(snap)
	s.lastErr.Store(nil)
	s.tracker.TrackLoad(len(asm.Tracks), len(asm.MissingHours), len(asm.InvalidPoints))

	log.Info("Fleet loaded",
		"tracks", len(asm.Tracks),
		"missing_hours", len(asm.MissingHours),
		"duration", s.now().Sub(start).Round(time.Millisecond),
	)
	logging.LogEvent(logging.Event{
		Type:    "load",
		Title:   "Fleet loaded",
		Summary: fmt.Sprintf("%d balloons, %d hours missing", len(asm.Tracks), len(asm.MissingHours)),
	})
	return snap, nil
}

func (s *Service) fail(log *slog.Logger, id string, err error) error {
	s.lastErr.Store(&err)
	log.Error("Fleet load failed", "error", err)
	logging.LogEvent(logging.Event{Type: "load_failed", Title: "Fleet load failed", Summary: err.Error()})
	return fmt.Errorf("load %s: %w", id, err)
}

// Snapshot returns the current fleet, if any load has succeeded.
func (s *Service) Snapshot() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// LastError reports the error of the most recent load, nil after a success.
func (s *Service) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Start loads immediately and then once per interval. It blocks until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Fleet refresh started", "interval", s.interval)
	s.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Fleet refresh stopped")
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Service) refresh(ctx context.Context) {
	if _, err := s.Load(ctx); err != nil && !errors.Is(err, ErrBusy) {
		slog.Debug("Keeping previous fleet", "error", err)
	}
}
