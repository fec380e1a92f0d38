package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

// warmLocationConcurrency bounds how many locations are warmed at once so
// a long warm list does not stampede the provider quotas.
const warmLocationConcurrency = 3

// warmer drives the API's refresh and snapshot endpoints.
type warmer struct {
	cfg    workerConfig
	client *http.Client
	logger *slog.Logger
}

func newWarmer(cfg workerConfig, logger *slog.Logger) *warmer {
	return &warmer{
		cfg:    cfg,
		client: &http.Client{Timeout: 90 * time.Second},
		logger: logger,
	}
}

// run executes one refresh-then-warm cycle. Individual location failures
// are logged and skipped; the cycle is best-effort throughout.
func (w *warmer) run(ctx context.Context) {
	start := time.Now()

	if err := w.refresh(ctx); err != nil {
		w.logger.Error("cache refresh failed, skipping warm cycle", slog.Any("error", err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmLocationConcurrency)
	for _, target := range w.cfg.WarmTargets {
		g.Go(func() error {
			if err := w.warm(gctx, target); err != nil {
				w.logger.Warn("warm failed", slog.String("location", target.Location), slog.Any("error", err))
			}
			return nil
		})
	}
	g.Wait()

	w.logger.Info("refresh cycle completed",
		slog.Int("locations", len(w.cfg.WarmTargets)),
		slog.Duration("duration", time.Since(start)))
}

// refresh clears every category cache in the API process.
func (w *warmer) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.APIURL+"/refresh", nil)
	if err != nil {
		return err
	}
	return w.do(req)
}

// warm re-populates the combined snapshot cache for one location. Targets
// with coordinates warm the weather cache too; without them the first user
// supplying lat/lng would still pay the weather fan-out.
func (w *warmer) warm(ctx context.Context, target warmTarget) error {
	q := url.Values{}
	q.Set("location", target.Location)
	if target.Lat != "" {
		q.Set("lat", target.Lat)
		q.Set("lng", target.Lng)
	}

	u := w.cfg.APIURL + "/location?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return w.do(req)
}

func (w *warmer) do(req *http.Request) error {
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return nil
}
