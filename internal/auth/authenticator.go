package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Config contains configuration for the Authenticator.
type Config struct {
	// Tolerance is the accepted distance between x-ckbfs-date and server time.
	Tolerance time.Duration

	// WriteMethods are the HTTP methods whose bodies must be claim_event documents.
	WriteMethods []string
}

// DefaultConfig returns the default authenticator configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance:    MaxSkewTime,
		WriteMethods: []string{http.MethodPost, http.MethodPut, http.MethodPatch},
	}
}

// Authenticator verifies CKBFS1-HMAC-SHA256 signed requests. It holds no
// per-request state and is safe for concurrent use.
type Authenticator struct {
	resolver     IdentityResolver
	tolerance    time.Duration
	writeMethods map[string]bool
	now          func() time.Time
	logger       zerolog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the clock used for timestamp validation.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(resolver IdentityResolver, config Config, logger zerolog.Logger, opts ...Option) *Authenticator {
	if config.Tolerance <= 0 {
		config.Tolerance = MaxSkewTime
	}

	writeMethods := make(map[string]bool, len(config.WriteMethods))
	for _, m := range config.WriteMethods {
		writeMethods[m] = true
	}

	a := &Authenticator{
		resolver:     resolver,
		tolerance:    config.Tolerance,
		writeMethods: writeMethods,
		now:          time.Now,
		logger:       logger.With().Str("component", "authenticator").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate runs the full accept/reject decision for a request. Steps run
// in a fixed order and the first failure is returned; nothing is returned
// for the caller unless every step passes.
func (a *Authenticator) Authenticate(ctx context.Context, req RequestContext) (*Authenticated, error) {
	result, state, err := a.authenticate(ctx, req)
	if err != nil {
		a.logger.Debug().
			Err(err).
			Str("method", req.Method()).
			Stringer("state", state).
			Str("kind", ErrorKind(err)).
			Msg("Authentication failed")
		return nil, err
	}

	a.logger.Debug().
		Object("caller", result.Caller).
		Time("request_time", result.Timestamp).
		Msg("Request authenticated")

	return result, nil
}

// authenticate returns the last state reached alongside any error.
func (a *Authenticator) authenticate(ctx context.Context, req RequestContext) (*Authenticated, State, error) {
	// Start -> HeaderParsed -> IdentityResolved
	header, caller, state, err := parseAuthorizationHeader(ctx, req.Header(AuthHeader), a.resolver)
	if err != nil {
		return nil, state, err
	}

	// DateHeaderPresent
	timestamp := req.Header(DateHeader)
	if timestamp == "" {
		return nil, state, ErrDateHeaderMissing
	}
	state = StateDateHeaderPresent

	// BodyValid
	if a.writeMethods[req.Method()] {
		if err := ValidateBody(req.Body()); err != nil {
			return nil, state, err
		}
		state = StateBodyValid
	}

	// TimestampValid
	requestTime, err := ValidateTimestamp(timestamp, a.now(), a.tolerance)
	if err != nil {
		return nil, state, err
	}
	state = StateTimestampValid

	// SignatureValid
	body, err := readBody(req.Body())
	if err != nil {
		return nil, state, ErrRequestBodyInvalid
	}

	cr := BuildCanonicalRequest(req.Method(), req.Header(HostHeader), req.RawQuery(), body, timestamp)
	if err := VerifySignature(caller.Secret, timestamp, cr, header.Signature); err != nil {
		return nil, state, err
	}

	return &Authenticated{
		Caller:    caller,
		Timestamp: requestTime,
		Signature: header.Signature,
		Header:    header,
	}, StateAuthenticated, nil
}
