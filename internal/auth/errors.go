package auth

import (
	"errors"
	"net/http"

	"github.com/prn-tf/ckbfs-faucet/internal/apierror"
)

// ErrCallerNotFound is returned by an IdentityResolver when no active caller
// owns the access key.
var ErrCallerNotFound = errors.New("caller not found")

// Authentication errors. Each is a distinct terminal outcome of Authenticate.
var (
	ErrMissingAuthorizationHeader = &apierror.Error{
		Code:   1001,
		Status: http.StatusUnauthorized,
		Title:  "Authorization header is required",
		Detail: "Need to set authorization HTTP header",
	}

	ErrAlgorithmFieldInvalid = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Algorithm field is invalid",
		Detail: "Algorithm field must be " + Algorithm,
	}

	ErrCredentialFieldInvalid = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Credential field is invalid",
		Detail: "Credential field format is Credential=<Access Key ID/Scope>",
	}

	ErrAccessKeyIDInvalid = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Access Key Id is invalid",
		Detail: "Access Key Id must be 24 characters long",
	}

	ErrProductNotFound = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Product not found",
		Detail: "No product found by given access key id",
	}

	ErrServiceInvalid = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Service is invalid",
		Detail: "Service in credential scope must be " + ServiceName,
	}

	ErrSignedHeadersInvalid = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Signed headers is invalid",
		Detail: "SignedHeaders field must be SignedHeaders=" + SignedHeaders,
	}

	ErrSignatureMissing = &apierror.Error{
		Code:   1002,
		Status: http.StatusUnauthorized,
		Title:  "Signature is missing",
		Detail: "Signature field format is Signature=<signature>",
	}

	ErrDateHeaderMissing = &apierror.Error{
		Code:   1003,
		Status: http.StatusUnauthorized,
		Title:  "Date header is required",
		Detail: "Need to set x-ckbfs-date HTTP header",
	}

	ErrTimestampInvalid = &apierror.Error{
		Code:   1004,
		Status: http.StatusUnauthorized,
		Title:  "Timestamp is invalid",
		Detail: "The request must be signed within 5 minutes of the server time",
	}

	ErrSignatureInvalid = &apierror.Error{
		Code:   1005,
		Status: http.StatusUnauthorized,
		Title:  "Signature is invalid",
		Detail: "The request signature we calculated does not match the signature you provided",
	}

	ErrRequestBodyInvalid = &apierror.Error{
		Code:   1006,
		Status: http.StatusUnauthorized,
		Title:  "Request body is invalid",
		Detail: "Request body must be a claim_event resource object",
	}
)

// errorKinds names every authentication error for logs and metrics.
var errorKinds = map[*apierror.Error]string{
	ErrMissingAuthorizationHeader: "missing_authorization_header",
	ErrAlgorithmFieldInvalid:      "algorithm_field_invalid",
	ErrCredentialFieldInvalid:     "credential_field_invalid",
	ErrAccessKeyIDInvalid:         "access_key_id_invalid",
	ErrProductNotFound:            "product_not_found",
	ErrServiceInvalid:             "service_invalid",
	ErrSignedHeadersInvalid:       "signed_headers_invalid",
	ErrSignatureMissing:           "signature_missing",
	ErrDateHeaderMissing:          "date_header_missing",
	ErrTimestampInvalid:           "timestamp_invalid",
	ErrSignatureInvalid:           "signature_invalid",
	ErrRequestBodyInvalid:         "request_body_invalid",
}

// ErrorKind returns a stable snake_case name for an authentication error,
// or "internal_error" for anything else.
func ErrorKind(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		if kind, ok := errorKinds[apiErr]; ok {
			return kind
		}
	}
	return "internal_error"
}
