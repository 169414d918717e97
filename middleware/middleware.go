// Package middleware holds the HTTP middleware chain shared by every route.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"recipe_backend/apperrors"
	"recipe_backend/auth"
)

type contextKey string

const contextKeyRequestID contextKey = "requestID"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID returns the id assigned by the RequestID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// WithRequestID keeps a valid incoming X-Request-Id or generates one.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recover turns a handler panic into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				panicRecoveries.Inc()
				slog.Error("panic recovered",
					"type", "http",
					"error", fmt.Sprint(v),
					"requestID", RequestID(r.Context()),
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteError(w, r, apperrors.New(apperrors.ErrCodeInternal, "Internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests once limiter runs dry.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				rateLimitRejects.Inc()
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, apperrors.NewWithContext(apperrors.ErrCodeRateLimitExceeded,
					"Rate limit exceeded", map[string]any{
						"limit": float64(limiter.Limit()),
						"burst": limiter.Burst(),
					}))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(int(limiter.Limit())))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

// Logging logs every completed request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		if rw.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request completed",
			"type", "http",
			"requestID", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

// CORS answers preflight requests for origins.
func CORS(origins []string) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	return c.Handler
}

// Authenticate requires an "Authorization: Token <key>" header naming a
// known user and stores the user in the request context.
func Authenticate(dir auth.Directory) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ParseHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, r, err)
				return
			}

			user, err := dir.Lookup(r.Context(), token)
			if err != nil {
				writeUnauthorized(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
		WriteError(w, r, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "Authentication credentials were not provided.", err))
	case errors.Is(err, auth.ErrInvalidToken):
		WriteError(w, r, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "Invalid token.", err))
	default:
		WriteError(w, r, apperrors.Wrap(apperrors.ErrCodeUnavailable, "authentication backend unavailable", err))
	}
}
