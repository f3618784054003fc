package auth

import (
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// Credential Types
// =============================================================================

// CredentialField is the parsed value of Credential=<akid>/<date>/<service>/<terminator>.
type CredentialField struct {
	// AccessKeyID is the 24 character access key id.
	AccessKeyID string

	// Date is the YYYYMMDD scope date. It is carried for format only;
	// key derivation uses the date prefix of x-ckbfs-date.
	Date string

	// Service must equal ServiceName.
	Service string

	// Terminator is the scope terminator, normally Terminator.
	Terminator string
}

// Scope returns the credential scope date/service/terminator.
func (c CredentialField) Scope() string {
	return c.Date + "/" + c.Service + "/" + c.Terminator
}

// String returns the credential as sent by the client.
func (c CredentialField) String() string {
	return c.AccessKeyID + "/" + c.Scope()
}

// AuthorizationHeader is a parsed and validated Authorization header.
// It is only constructed by ParseAuthorizationHeader.
type AuthorizationHeader struct {
	// Algorithm is always Algorithm.
	Algorithm string

	// Credential holds the access key id and scope.
	Credential CredentialField

	// SignedHeaders lists the signed header names in order.
	SignedHeaders []string

	// Signature is the raw hex signature supplied by the client.
	Signature string
}

// =============================================================================
// Identity Types
// =============================================================================

// CallerIdentity is the product that owns an access key, borrowed read-only
// for the duration of one request.
type CallerIdentity struct {
	// ProductID is the owning product's ID.
	ProductID int64

	// ProductName is the owning product's name.
	ProductName string

	// AccessKeyID is the public identifier.
	AccessKeyID string

	// Secret is the decrypted shared secret.
	Secret string

	// Active reports whether the access key may authenticate.
	Active bool
}

// MarshalZerologObject logs the identity without its secret.
func (c *CallerIdentity) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("product_id", c.ProductID).
		Str("product", c.ProductName).
		Str("access_key_id", c.AccessKeyID).
		Bool("active", c.Active)
}

// =============================================================================
// Signature Components
// =============================================================================

// CanonicalRequest holds the components of a canonical request.
type CanonicalRequest struct {
	// Method is the HTTP method.
	Method string

	// URI is the canonical URI. The request path is implicit, so this is the host.
	URI string

	// QueryString is the canonical query string.
	QueryString string

	// Headers is the canonical headers block, newline terminated.
	Headers string

	// SignedHeaders is the signed headers list.
	SignedHeaders string

	// PayloadHash is the hex SHA-256 of the body.
	PayloadHash string
}

// String returns the canonical request as a string for signing.
func (cr CanonicalRequest) String() string {
	return cr.Method + "\n" +
		cr.URI + "\n" +
		cr.QueryString + "\n" +
		cr.Headers + "\n" +
		cr.SignedHeaders + "\n" +
		cr.PayloadHash
}

// StringToSign represents the string to sign.
type StringToSign struct {
	// Algorithm is the signing algorithm.
	Algorithm string

	// Timestamp is the raw x-ckbfs-date value.
	Timestamp string

	// CredentialScope is date/service/terminator.
	CredentialScope string

	// CanonicalRequestHash is the hex SHA-256 of the canonical request.
	CanonicalRequestHash string
}

// String returns the string to sign.
func (sts StringToSign) String() string {
	return sts.Algorithm + "\n" +
		sts.Timestamp + "\n" +
		sts.CredentialScope + "\n" +
		sts.CanonicalRequestHash
}

// =============================================================================
// Result Types
// =============================================================================

// State is a step of the authentication state machine.
type State int

const (
	StateStart State = iota
	StateHeaderParsed
	StateIdentityResolved
	StateDateHeaderPresent
	StateBodyValid
	StateTimestampValid
	StateSignatureValid
	StateAuthenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateHeaderParsed:
		return "HeaderParsed"
	case StateIdentityResolved:
		return "IdentityResolved"
	case StateDateHeaderPresent:
		return "DateHeaderPresent"
	case StateBodyValid:
		return "BodyValid"
	case StateTimestampValid:
		return "TimestampValid"
	case StateSignatureValid:
		return "SignatureValid"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return "Unknown"
	}
}

// Authenticated is the outcome of a successful authentication. The resource
// layer stores Timestamp and Signature as provenance.
type Authenticated struct {
	// Caller is the resolved identity.
	Caller *CallerIdentity

	// Timestamp is the parsed x-ckbfs-date.
	Timestamp time.Time

	// Signature is the verified client signature.
	Signature string

	// Header is the parsed Authorization header.
	Header *AuthorizationHeader
}

// authContextKey is the context key for Authenticated.
type authContextKey struct{}
