package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/apierror"
)

// Observer receives the outcome of every authentication attempt.
type Observer interface {
	// ObserveAuthentication records the outcome kind ("ok" on success) and its duration.
	ObserveAuthentication(kind string, duration time.Duration)
}

// MiddlewareConfig contains configuration for the auth middleware.
type MiddlewareConfig struct {
	// SkipPaths are paths that skip authentication.
	SkipPaths []string

	// MaxBodySize bounds the buffered body in bytes. 0 means unlimited.
	MaxBodySize int64

	// LastUsed queues a last-used update after a successful authentication (optional).
	LastUsed *LastUsedQueue

	// Observer records authentication outcomes (optional).
	Observer Observer
}

// Middleware creates an authentication middleware. Failed requests receive a
// JSON error document and never reach next.
func Middleware(authenticator *Authenticator, config MiddlewareConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			req, err := NewHTTPRequest(r, config.MaxBodySize)
			if err != nil {
				if errors.Is(err, ErrBodyTooLarge) {
					err = ErrRequestBodyInvalid
				}
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to buffer request body")
				observe(config.Observer, err, start)
				apierror.Write(w, err)
				return
			}

			result, err := authenticator.Authenticate(r.Context(), req)
			observe(config.Observer, err, start)
			if err != nil {
				if apierror.From(err) == apierror.ErrInternal {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("Authentication error")
				}
				apierror.Write(w, err)
				return
			}

			if config.LastUsed != nil {
				config.LastUsed.Enqueue(result.Caller.AccessKeyID)
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), result)))
		})
	}
}

func observe(o Observer, err error, start time.Time) {
	if o == nil {
		return
	}
	kind := "ok"
	if err != nil {
		kind = ErrorKind(err)
	}
	o.ObserveAuthentication(kind, time.Since(start))
}

// NewContext returns a copy of ctx carrying an authentication result.
func NewContext(ctx context.Context, result *Authenticated) context.Context {
	return context.WithValue(ctx, authContextKey{}, result)
}

// FromContext retrieves the authentication result from a request context.
func FromContext(ctx context.Context) (*Authenticated, bool) {
	result, ok := ctx.Value(authContextKey{}).(*Authenticated)
	return result, ok && result != nil
}
