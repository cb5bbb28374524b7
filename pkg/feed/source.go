package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"driftwatch/pkg/request"
)

// Source returns the raw body of one hourly file.
type Source interface {
	Fetch(ctx context.Context, hour int) ([]byte, error)
}

// FileName returns the file name for an hour offset, e.g. "07.json".
func FileName(hour int) string {
	return fmt.Sprintf("%02d.json", hour)
}

// HTTPSource fetches hour files from the live endpoint.
type HTTPSource struct {
	client  *request.Client
	baseURL string
	now     func() time.Time
}

// NewHTTPSource creates a source reading baseURL/NN.json.
func NewHTTPSource(c *request.Client, baseURL string) *HTTPSource {
	return &HTTPSource{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// URL returns the upstream URL of an hour file.
func (s *HTTPSource) URL(hour int) string {
	return s.baseURL + "/" + FileName(hour)
}

// Fetch implements Source. Responses are cached until the wall-clock hour
// rolls over, when upstream publishes a new set of files.
func (s *HTTPSource) Fetch(ctx context.Context, hour int) ([]byte, error) {
	if hour < 0 || hour >= Hours {
		return nil, fmt.Errorf("hour %d out of range", hour)
	}
	key := fmt.Sprintf("feed_%02d_%s", hour, s.now().UTC().Format("2006010215"))
	body, err := s.client.Get(ctx, s.URL(hour), key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", FileName(hour), err)
	}
	return body, nil
}

// DirSource replays hour files from a local directory.
type DirSource struct {
	Dir string
}

// Fetch implements Source.
func (s DirSource) Fetch(ctx context.Context, hour int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hour < 0 || hour >= Hours {
		return nil, fmt.Errorf("hour %d out of range", hour)
	}
	body, err := os.ReadFile(filepath.Join(s.Dir, FileName(hour)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName(hour), err)
	}
	return body, nil
}

// FetchAll loads every hour concurrently and waits for all of them. A failed
// or malformed hour is nil in the result; the error only reports ctx expiry.
func FetchAll(ctx context.Context, src Source) ([]Snapshot, error) {
	snaps := make([]Snapshot, Hours)
	g, gctx := errgroup.WithContext(ctx)
	for h := 0; h < Hours; h++ {
		g.Go(func() error {
			body, err := src.Fetch(gctx, h)
			if err != nil {
				slog.Warn("Hour fetch failed", "hour", h, "error", err)
				return nil
			}
			snap, err := ParseSnapshot(h, body)
			if err != nil {
				slog.Warn("Hour skipped", "hour", h, "error", err)
				return nil
			}
			snaps[h] = snap
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}
