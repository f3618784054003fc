package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
)

// =============================================================================
// Query Canonicalization
// =============================================================================

// CanonicalQueryString canonicalizes a raw query string. Segments are split on
// the first "=". The first bare occurrence of a key (no value) pins it to
// "key="; otherwise the last valued occurrence wins. Pairs are rendered as
// key=value, sorted by the rendered string and joined with "&".
//
// Keys and values are not decoded or re-encoded.
func CanonicalQueryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values := make(map[string]string)
	bare := make(map[string]bool)

	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}

		key, value, _ := strings.Cut(segment, "=")
		if value == "" {
			if _, seen := values[key]; !seen {
				values[key] = ""
				bare[key] = true
			}
			continue
		}

		if bare[key] {
			continue
		}
		values[key] = value
	}

	pairs := make([]string, 0, len(values))
	for key, value := range values {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)

	return strings.Join(pairs, "&")
}

// =============================================================================
// Canonical Request Building
// =============================================================================

// BuildCanonicalRequest assembles the canonical request for a request. The
// payload hash is always computed from body, including an empty body.
func BuildCanonicalRequest(method, host, rawQuery string, body []byte, timestamp string) CanonicalRequest {
	payloadHash := HashPayload(body)

	return CanonicalRequest{
		Method:        method,
		URI:           host,
		QueryString:   CanonicalQueryString(rawQuery),
		Headers:       canonicalHeaders(host, payloadHash, timestamp),
		SignedHeaders: SignedHeaders,
		PayloadHash:   payloadHash,
	}
}

// canonicalHeaders builds the three header lines in signed order.
func canonicalHeaders(host, payloadHash, timestamp string) string {
	var b strings.Builder
	b.WriteString(HostHeader + ":" + host + "\n")
	b.WriteString(ContentSHA256Header + ":" + payloadHash + "\n")
	b.WriteString(DateHeader + ":" + timestamp + "\n")
	return b.String()
}

// HashPayload returns the hex SHA-256 of body.
func HashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// readBody reads all of body and rewinds it to the start.
func readBody(body io.ReadSeeker) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}
