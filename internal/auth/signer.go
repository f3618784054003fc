package auth

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Signer signs outgoing requests on behalf of a caller.
type Signer struct {
	accessKeyID string
	secret      string
	now         func() time.Time
}

// NewSigner creates a Signer for an access key pair.
func NewSigner(accessKeyID, secret string) *Signer {
	return &Signer{
		accessKeyID: accessKeyID,
		secret:      secret,
		now:         time.Now,
	}
}

// WithClock returns a copy of the signer that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

// Sign sets x-ckbfs-date, x-ckbfs-content-sha256 and Authorization on r. The
// body is buffered and restored so r can still be sent.
func (s *Signer) Sign(r *http.Request) error {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		_ = r.Body.Close()
		body = data
		r.Body = io.NopCloser(bytes.NewReader(data))
	}

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}

	timestamp := s.now().UTC().Format(ISO8601BasicFormat)
	cr := BuildCanonicalRequest(r.Method, host, r.URL.RawQuery, body, timestamp)
	signature := ComputeSignature(s.secret, timestamp, cr)

	r.Header.Set(DateHeader, timestamp)
	r.Header.Set(ContentSHA256Header, cr.PayloadHash)
	r.Header.Set(AuthHeader, s.Authorization(timestamp, signature))

	return nil
}

// Authorization renders the Authorization header value for a signature.
func (s *Signer) Authorization(timestamp, signature string) string {
	credential := s.accessKeyID + "/" + CredentialScope(datePrefix(timestamp))
	return Algorithm + " " +
		credentialField + "=" + credential + ", " +
		signedHeadersField + "=" + SignedHeaders + ", " +
		signatureField + "=" + signature
}
