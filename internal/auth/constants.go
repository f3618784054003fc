// Package auth implements the CKBFS1-HMAC-SHA256 request signing scheme used to
// authenticate faucet API callers. The scheme follows the shape of AWS Signature
// Version 4 with a fixed service, a fixed set of signed headers and no region.
package auth

import "time"

// =============================================================================
// Constants
// =============================================================================

const (
	// Algorithm is the scheme name carried as the first token of the Authorization header.
	Algorithm = "CKBFS1-HMAC-SHA256"

	// KeyPrefix is prepended to the caller secret to form the first HMAC key.
	KeyPrefix = "ckbfs1"

	// ServiceName is the only accepted service in the credential scope.
	ServiceName = "faucet"

	// Terminator closes the credential scope.
	Terminator = "ckbfs1_request"

	// ISO8601BasicFormat is the x-ckbfs-date format, e.g. 20200611T130513Z.
	ISO8601BasicFormat = "20060102T150405Z"

	// YYYYMMDD is the short date format used in the credential scope.
	YYYYMMDD = "20060102"

	// AccessKeyIDLength is the exact length of an access key id.
	AccessKeyIDLength = 24

	// MaxSkewTime is the tolerated distance between the request timestamp and server time.
	MaxSkewTime = 5 * time.Minute
)

// =============================================================================
// Header Constants
// =============================================================================

const (
	// AuthHeader carries the algorithm, credential, signed headers and signature.
	AuthHeader = "authorization"

	// HostHeader is the request host.
	HostHeader = "host"

	// DateHeader carries the signing timestamp.
	DateHeader = "x-ckbfs-date"

	// ContentSHA256Header names the payload hash line of the canonical headers.
	ContentSHA256Header = "x-ckbfs-content-sha256"

	// SignedHeaders is the sorted, semicolon-joined list every request must sign.
	SignedHeaders = HostHeader + ";" + ContentSHA256Header + ";" + DateHeader
)

// Field names inside the Authorization header.
const (
	credentialField    = "Credential"
	signedHeadersField = "SignedHeaders"
	signatureField     = "Signature"
)

// EmptyStringSHA256 is the SHA-256 hash of an empty payload.
const EmptyStringSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
