package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/ckbfs-faucet/internal/apierror"
	"github.com/prn-tf/ckbfs-faucet/internal/domain"
	"github.com/prn-tf/ckbfs-faucet/internal/service"
)

// errorMapping pairs a domain or service error with its API error.
var errorMapping = []struct {
	err    error
	apiErr *apierror.Error
}{
	{domain.ErrClaimEventNotFound, apierror.ErrClaimEventNotFound},
	{service.ErrRequestUUIDInvalid, apierror.ErrRequestUUIDInvalid},
	{service.ErrPk160Invalid, apierror.ErrPk160Invalid},
	{service.ErrRequestTypeInvalid, apierror.ErrRequestTypeInvalid},
	{service.ErrAcpTypeInvalid, apierror.ErrAcpTypeInvalid},
	{domain.ErrQuotaPerProduct, apierror.ErrExceedsDailyQuotaLimitPerProduct},
	{domain.ErrQuotaPerRequestType, apierror.ErrExceedsDailyQuotaLimitPerType},
	{domain.ErrQuotaTotal, apierror.ErrExceedsDailyQuotaLimit},
	{domain.ErrDuplicateClaim, apierror.ErrPk160AlreadyClaimed},
	{service.ErrQuotaBusy, apierror.ErrServiceBusy},
}

// toAPIError converts err to the API error clients see. Unknown errors
// become apierror.ErrInternal.
func toAPIError(err error) *apierror.Error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.apiErr
		}
	}
	return apierror.From(err)
}

// writeError renders err and logs it when it is not a client error.
func (h *ClaimHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	apierror.Write(w, apiErr)
}
