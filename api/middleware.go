package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/endpoints"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// requestID reuses the caller's X-Request-ID if present, and generates one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		res.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(req.Context(), requestIDKey{}, id)
		next.ServeHTTP(res, req.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(res, req.ProtoMajor)

		next.ServeHTTP(wrapped, req)

		log.Debug(
			"handled request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", wrapped.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("requestId", requestIDFromContext(req.Context())),
		)
	})
}

// forwardCredential makes the caller's bearer token available to delegated endpoint calls.
func forwardCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if token, ok := endpoints.BearerToken(req.Header.Get("Authorization")); ok {
			req = req.WithContext(endpoints.WithCredential(req.Context(), token))
		}
		next.ServeHTTP(res, req)
	})
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a token bucket per client IP, answering 429 when it is empty.
func rateLimiter(perSecond float64, burst int) func(http.Handler) http.Handler {
	const staleAfter = 10 * time.Minute

	var lock sync.Mutex
	clients := make(map[string]*clientLimiter)
	lastSweep := time.Now()

	getLimiter := func(ip string, now time.Time) *rate.Limiter {
		lock.Lock()
		defer lock.Unlock()

		if now.Sub(lastSweep) > staleAfter {
			for key, client := range clients {
				if now.Sub(client.lastSeen) > staleAfter {
					delete(clients, key)
				}
			}
			lastSweep = now
		}

		client, ok := clients[ip]
		if !ok {
			client = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
			clients[ip] = client
		}
		client.lastSeen = now
		return client.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			now := time.Now()
			limiter := getLimiter(clientIP(req), now)

			reservation := limiter.ReserveN(now, 1)
			if !reservation.OK() {
				sendTooManyRequests(res, 0)
				return
			}
			if delay := reservation.DelayFrom(now); delay > 0 {
				reservation.CancelAt(now)
				sendTooManyRequests(res, int(delay.Seconds())+1)
				return
			}

			next.ServeHTTP(res, req)
		})
	}
}

// Only RemoteAddr is used, as X-Forwarded-For can be set by the client.
func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func sendTooManyRequests(res http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		res.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	sendJSON(res, http.StatusTooManyRequests, errorResponse{Error: "Too many requests, please slow down"})
}
