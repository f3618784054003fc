package handler

import (
	"net/http"

	"github.com/prn-tf/ckbfs-faucet/internal/apierror"
)

// Negotiate enforces the JSON:API media type before authentication runs.
// POST and PUT must send it as Content-Type. Other methods may omit
// Content-Type but must not send a different one. Accept must always name
// the media type exactly.
func Negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")

		switch r.Method {
		case http.MethodPost, http.MethodPut:
			if contentType != apierror.MediaType {
				apierror.Write(w, apierror.ErrContentTypeInvalid)
				return
			}
		default:
			if contentType != "" && contentType != apierror.MediaType {
				apierror.Write(w, apierror.ErrContentTypeInvalid)
				return
			}
		}

		if r.Header.Get("Accept") != apierror.MediaType {
			apierror.Write(w, apierror.ErrAcceptInvalid)
			return
		}

		next.ServeHTTP(w, r)
	})
}
