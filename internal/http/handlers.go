/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"
    "time"

    "github.com/HamedShams/plane-pulse/internal/config"
    "github.com/HamedShams/plane-pulse/internal/metrics"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

type service interface {
    Refresh(ctx context.Context) error
    Report() (*metrics.Report, time.Time, bool)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// report fetches the cached report or answers 503 before the first refresh
// completes; presentation decides how to render "no data yet".
func (h *Handlers) report(c *gin.Context) (*metrics.Report, time.Time, bool) {
    r, at, ok := h.svc.Report()
    if !ok {
        c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report not ready"})
    }
    return r, at, ok
}

func (h *Handlers) FullReport(c *gin.Context) {
    r, at, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, gin.H{"refreshed_at": at, "report": r})
}

func (h *Handlers) Sprints(c *gin.Context) {
    r, _, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, r.Sprints)
}

func (h *Handlers) Developers(c *gin.Context) {
    r, _, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, r.Developers)
}

func (h *Handlers) Categories(c *gin.Context) {
    r, _, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, r.Categories)
}

// Timeline serves the by-sprint table in its time-series order; the rows are
// already sorted by cycle start date, so this is the same slice.
func (h *Handlers) Timeline(c *gin.Context) {
    r, _, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, r.Sprints)
}

func (h *Handlers) Diagnostics(c *gin.Context) {
    r, _, ok := h.report(c)
    if !ok { return }
    c.JSON(http.StatusOK, r.Diagnostics)
}

func (h *Handlers) RefreshNow(c *gin.Context) {
    // Detached from the request context so a closed connection does not
    // cancel the refresh.
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), h.cfg.DBTimeout)
        defer cancel()
        if err := h.svc.Refresh(ctx); err != nil {
            h.log.Error().Err(err).Msg("manual refresh failed")
        }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
