package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// =============================================================================
// Signing Key Generation
// =============================================================================

// DeriveSigningKey derives the signing key for a request date (YYYYMMDD):
// HMAC(HMAC(HMAC("ckbfs1"+secret, date), "faucet"), "ckbfs1_request").
// Callers should clear the returned key once the signature is computed.
func DeriveSigningKey(secret, date string) []byte {
	// Step 1: kDate = HMAC("ckbfs1" + secret, date)
	kDate := hmacSHA256([]byte(KeyPrefix+secret), []byte(date))

	// Step 2: kService = HMAC(kDate, service)
	kService := hmacSHA256(kDate, []byte(ServiceName))
	clear(kDate)

	// Step 3: kSigning = HMAC(kService, terminator)
	kSigning := hmacSHA256(kService, []byte(Terminator))
	clear(kService)

	return kSigning
}

// hmacSHA256 computes HMAC-SHA256.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// =============================================================================
// String to Sign Building
// =============================================================================

// CredentialScope returns date/service/terminator for a request date.
func CredentialScope(date string) string {
	return date + "/" + ServiceName + "/" + Terminator
}

// NewStringToSign builds the string to sign for a canonical request. The
// scope date is the first eight characters of timestamp.
func NewStringToSign(timestamp string, cr CanonicalRequest) StringToSign {
	hash := sha256.Sum256([]byte(cr.String()))

	return StringToSign{
		Algorithm:            Algorithm,
		Timestamp:            timestamp,
		CredentialScope:      CredentialScope(datePrefix(timestamp)),
		CanonicalRequestHash: hex.EncodeToString(hash[:]),
	}
}

// datePrefix returns the YYYYMMDD prefix of a timestamp, or the whole value if shorter.
func datePrefix(timestamp string) string {
	if len(timestamp) < len(YYYYMMDD) {
		return timestamp
	}
	return timestamp[:len(YYYYMMDD)]
}

// =============================================================================
// Signature Computation
// =============================================================================

// ComputeSignature returns the hex signature of a canonical request signed
// with secret at timestamp.
func ComputeSignature(secret, timestamp string, cr CanonicalRequest) string {
	signingKey := DeriveSigningKey(secret, datePrefix(timestamp))
	defer clear(signingKey)

	sts := NewStringToSign(timestamp, cr)
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(sts.String())))
}

// VerifySignature recomputes the signature and compares it with the supplied
// one in constant time. It returns ErrSignatureInvalid on mismatch.
func VerifySignature(secret, timestamp string, cr CanonicalRequest, signature string) error {
	expected := ComputeSignature(secret, timestamp, cr)

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}

	return nil
}
