package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// IdentityResolver looks up the caller that owns an access key.
type IdentityResolver interface {
	// FindActiveCaller returns the active caller for accessKeyID, or
	// ErrCallerNotFound when the key is unknown or inactive.
	FindActiveCaller(ctx context.Context, accessKeyID string) (*CallerIdentity, error)
}

// =============================================================================
// Authorization Header Parsing
// =============================================================================

// ParseAuthorizationHeader parses and validates an Authorization header and
// resolves the caller that owns its access key. Checks run in a fixed order
// and the first failure is returned.
//
// Format: CKBFS1-HMAC-SHA256 Credential=akid/date/faucet/ckbfs1_request, SignedHeaders=..., Signature=...
func ParseAuthorizationHeader(
	ctx context.Context,
	raw string,
	resolver IdentityResolver,
) (*AuthorizationHeader, *CallerIdentity, error) {
	header, caller, _, err := parseAuthorizationHeader(ctx, raw, resolver)
	return header, caller, err
}

// parseAuthorizationHeader also returns the last state reached: Start until
// the credential is well formed, HeaderParsed until the caller is resolved,
// IdentityResolved after that.
func parseAuthorizationHeader(
	ctx context.Context,
	raw string,
	resolver IdentityResolver,
) (*AuthorizationHeader, *CallerIdentity, State, error) {
	state := StateStart

	if strings.TrimSpace(raw) == "" {
		return nil, nil, state, ErrMissingAuthorizationHeader
	}

	fields := strings.Fields(raw)
	field := func(i int) string {
		if i < len(fields) {
			return strings.TrimSuffix(fields[i], ",")
		}
		return ""
	}

	// Algorithm
	if field(0) != Algorithm {
		return nil, nil, state, ErrAlgorithmFieldInvalid
	}

	// Credential
	credentialValue, ok := extractField(field(1), credentialField)
	if !ok {
		return nil, nil, state, ErrCredentialFieldInvalid
	}
	credential := parseCredential(credentialValue)

	if len(credential.AccessKeyID) != AccessKeyIDLength {
		return nil, nil, state, ErrAccessKeyIDInvalid
	}
	state = StateHeaderParsed

	caller, err := resolver.FindActiveCaller(ctx, credential.AccessKeyID)
	if err != nil {
		if errors.Is(err, ErrCallerNotFound) {
			return nil, nil, state, ErrProductNotFound
		}
		return nil, nil, state, fmt.Errorf("resolve caller: %w", err)
	}
	if caller == nil || !caller.Active {
		return nil, nil, state, ErrProductNotFound
	}
	state = StateIdentityResolved

	if credential.Service != ServiceName {
		return nil, nil, state, ErrServiceInvalid
	}

	// SignedHeaders
	signedHeadersValue, ok := extractField(field(2), signedHeadersField)
	if !ok || strings.ReplaceAll(signedHeadersValue, ",", "") != SignedHeaders {
		return nil, nil, state, ErrSignedHeadersInvalid
	}

	// Signature
	signature, ok := extractField(field(3), signatureField)
	if !ok {
		return nil, nil, state, ErrSignatureMissing
	}

	return &AuthorizationHeader{
		Algorithm:     Algorithm,
		Credential:    credential,
		SignedHeaders: strings.Split(SignedHeaders, ";"),
		Signature:     signature,
	}, caller, state, nil
}

// extractField returns the value of a name=value field. It reports false
// when the name does not match or the value is empty.
func extractField(f, name string) (string, bool) {
	key, value, found := strings.Cut(f, "=")
	if !found || key != name || value == "" {
		return "", false
	}
	return value, true
}

// parseCredential splits akid/date/service/terminator. Missing components are empty.
func parseCredential(value string) CredentialField {
	parts := strings.SplitN(value, "/", 4)
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	return CredentialField{
		AccessKeyID: parts[0],
		Date:        parts[1],
		Service:     parts[2],
		Terminator:  parts[3],
	}
}
