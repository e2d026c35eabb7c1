/*
 * @module api/middleware/rate_limit
 * @description Redis-backed fixed-window rate limiting for OCR-heavy routes
 * @architecture middleware layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow INCR per-client counter -> EXPIRE on first hit -> reject above limit
 * @rules limiting is per client IP; when Redis is unavailable requests pass through
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/routes.go
 */

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RateLimiter limits expensive requests per client using Redis counters.
type RateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

// NewRateLimiter connects to Redis from REDIS_HOST/REDIS_PORT/REDIS_PASSWORD.
// Returns nil when Redis is unreachable; callers then skip the middleware.
func NewRateLimiter(maxRequests, windowSeconds int) *RateLimiter {
	host := getEnvWithDefault("REDIS_HOST", "localhost")
	port := getEnvWithDefault("REDIS_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, rate limiting disabled", "error", err)
		return nil
	}

	slog.Info("rate limiter initialized", "redis_host", host, "redis_port", port,
		"max_requests", maxRequests, "window_seconds", windowSeconds)

	return &RateLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      time.Duration(windowSeconds) * time.Second,
	}
}

// Handler wraps an http.Handler with the limit check.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientAddr(r)
		key := fmt.Sprintf("controlflow:ratelimit:%s", clientIP)

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			// Redis hiccup: let the request through rather than block inspections.
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}

		if count > int64(rl.maxRequests) {
			slog.Warn("rate limit exceeded", "client_ip", clientIP, "count", count)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"status":429,"msg":"too many requests, retry later"}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
