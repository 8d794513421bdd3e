/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "sync"
    "time"

    "github.com/HamedShams/plane-pulse/internal/config"
    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/HamedShams/plane-pulse/internal/metrics"
    "github.com/google/uuid"
    "github.com/rs/zerolog"
)

type SnapshotLoader interface {
    LoadSnapshot(ctx context.Context, projectID uuid.UUID) (domain.Snapshot, error)
}

// Service loads tracker snapshots, runs the metrics engine over them and
// keeps the latest report for the HTTP layer. The engine itself is stateless;
// the only mutable state lives here, behind the lock.
type Service struct {
    cfg    config.Config
    log    zerolog.Logger
    loader SnapshotLoader

    mu          sync.RWMutex
    report      *metrics.Report
    refreshedAt time.Time
}

func New(cfg config.Config, log zerolog.Logger, loader SnapshotLoader) *Service {
    return &Service{cfg: cfg, log: log, loader: loader}
}

// Refresh materializes a fresh snapshot and recomputes the report. Dirty
// records never fail the refresh; they surface as diagnostics counts.
func (s *Service) Refresh(ctx context.Context) error {
    started := time.Now()
    snap, err := s.loader.LoadSnapshot(ctx, s.cfg.ProjectID)
    if err != nil {
        s.log.Error().Err(err).Msg("snapshot load failed")
        return err
    }
    report := metrics.Compute(snap)

    d := report.Diagnostics
    if d.DanglingCycleRefs+d.DanglingIssueRefs+d.DanglingUserRefs > 0 {
        s.log.Warn().
            Int("cycle_refs", d.DanglingCycleRefs).
            Int("issue_refs", d.DanglingIssueRefs).
            Int("user_refs", d.DanglingUserRefs).
            Msg("dangling references skipped")
    }
    if d.InvalidDurations > 0 {
        s.log.Warn().Int("count", d.InvalidDurations).Msg("invalid durations excluded")
    }

    s.mu.Lock()
    s.report = report
    s.refreshedAt = time.Now()
    s.mu.Unlock()

    s.log.Info().
        Int("sprints", len(report.Sprints)).
        Int("developers", len(report.Developers)).
        Dur("took", time.Since(started)).
        Msg("report refreshed")
    return nil
}

// Report returns the latest computed report. ok is false until the first
// successful refresh.
func (s *Service) Report() (report *metrics.Report, refreshedAt time.Time, ok bool) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.report, s.refreshedAt, s.report != nil
}
