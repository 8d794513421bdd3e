/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/HamedShams/plane-pulse/internal/config"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    api := r.Group("/api")
    {
        api.GET("/report", h.FullReport)
        api.GET("/report/sprints", h.Sprints)
        api.GET("/report/developers", h.Developers)
        api.GET("/report/categories", h.Categories)
        api.GET("/report/timeline", h.Timeline)
        api.GET("/report/diagnostics", h.Diagnostics)
    }
    r.POST("/admin/refresh", h.RefreshNow)

    return r
}
