package jobs

import (
    "context"
    "time"

    "github.com/HamedShams/plane-pulse/internal/config"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface{ Refresh(ctx context.Context) error }

type locker interface {
    TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
    AdvisoryUnlock(ctx context.Context, key int64) error
}

type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    lock locker
    c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, lock locker) *Cron {
    loc, err := time.LoadLocation(cfg.TZ)
    if err != nil { loc = time.Local }
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, lock: lock, c: c}
    _, _ = c.AddFunc(cfg.RefreshCron, cr.refresh)
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) refresh() {
    ctx, cancel := context.WithTimeout(context.Background(), cr.cfg.DBTimeout)
    defer cancel()
    const lockKey int64 = 732001
    ok, err := cr.lock.TryAdvisoryLock(ctx, lockKey)
    if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
    if !ok { cr.log.Info().Msg("cron: refresh already running elsewhere"); return }
    defer func() { _ = cr.lock.AdvisoryUnlock(context.Background(), lockKey) }()
    cr.log.Info().Msg("cron: report refresh")
    if err := cr.svc.Refresh(ctx); err != nil { cr.log.Error().Err(err).Msg("cron: refresh failed") }
}
