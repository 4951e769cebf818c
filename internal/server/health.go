package server

import (
	"context"
	"net/http"
	"time"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

const healthTimeout = 2 * time.Second

// checkDeps pings the database and Redis. A nil entry means healthy.
func checkDeps(ctx context.Context, appCtx *app.AppContext) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	out := map[string]error{}

	sqlDB, err := appCtx.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	out["db"] = err

	if appCtx.RedisCache != nil {
		out["redis"] = appCtx.RedisCache.Ping(ctx)
	}
	return out
}

func healthy(results map[string]error) bool {
	for _, err := range results {
		if err != nil {
			return false
		}
	}
	return true
}

func healthHandler(appCtx *app.AppContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := checkDeps(r.Context(), appCtx)

		deps := httpx.M{}
		for name, err := range results {
			if err != nil {
				appCtx.Logger.Warn("health check failed", "dep", name, "err", err)
				deps[name] = "down"
				continue
			}
			deps[name] = "ok"
		}

		if !healthy(results) {
			httpx.JSON(w, r, http.StatusServiceUnavailable, httpx.M{"status": "degraded", "deps": deps})
			return
		}
		httpx.OK(w, r, httpx.M{"status": "ok", "deps": deps})
	}
}
