package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oggyb/pahilobhet/internal/cache"
	"github.com/oggyb/pahilobhet/internal/httpx"
	"github.com/oggyb/pahilobhet/internal/logger"
)

const rateWindow = time.Minute

// RateLimit allows perMinute requests per client IP for the given scope.
// Redis failures let the request through.
func RateLimit(rc *cache.RedisCache, scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rc == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rl:%s:%s", scope, clientIP(r))

			ok, err := rc.Allow(r.Context(), key, int64(perMinute), rateWindow)
			if err != nil {
				logger.L().Warn("rate limiter unavailable", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
				httpx.JSON(w, r, http.StatusTooManyRequests, httpx.M{"message": "too many requests, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr, which chi's RealIP has
// already replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
