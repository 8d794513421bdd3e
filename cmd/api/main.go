/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/plane-pulse/internal/config"
    apphttp "github.com/HamedShams/plane-pulse/internal/http"
    "github.com/HamedShams/plane-pulse/internal/jobs"
    "github.com/HamedShams/plane-pulse/internal/logger"
    "github.com/HamedShams/plane-pulse/internal/repo"
    "github.com/HamedShams/plane-pulse/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    // Services
    repository := repo.NewRepository(db, log)
    svc := services.New(cfg, log, repository)

    // First report on startup; a failure here is logged, not fatal, the
    // cron refresh will retry.
    {
        ctx2, cancel2 := context.WithTimeout(ctx, cfg.DBTimeout); defer cancel2()
        if err := svc.Refresh(ctx2); err != nil {
            log.Error().Err(err).Msg("initial refresh failed; serving 503 until cron succeeds")
        }
    }

    // HTTP server (Gin)
    router := apphttp.NewRouter(cfg, log, svc)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    srv := &http.Server{
        Addr:         cfg.HTTPAddr,
        Handler:      router,
        ReadTimeout:  cfg.HTTPTimeout,
        WriteTimeout: cfg.HTTPTimeout,
    }

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- srv.ListenAndServe() }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    ctx3, cancel3 := context.WithTimeout(context.Background(), 5*time.Second); defer cancel3()
    _ = srv.Shutdown(ctx3)
}
