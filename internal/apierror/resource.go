package apierror

import "net/http"

// Claim event resource errors.
var (
	ErrClaimEventNotFound = &Error{
		Code:   1101,
		Status: http.StatusNotFound,
		Title:  "Claim event not found",
		Detail: "No claim event found by given id",
	}

	ErrRequestUUIDInvalid = &Error{
		Code:   1102,
		Status: http.StatusUnprocessableEntity,
		Title:  "Request uuid is invalid",
		Detail: "Request uuid must be a 0x-prefixed 32-byte hex string",
	}

	ErrPk160Invalid = &Error{
		Code:   1103,
		Status: http.StatusUnprocessableEntity,
		Title:  "Pk160 is invalid",
		Detail: "Pk160 must be a 0x-prefixed 20-byte hex string",
	}

	ErrRequestTypeInvalid = &Error{
		Code:   1104,
		Status: http.StatusUnprocessableEntity,
		Title:  "Request type is invalid",
		Detail: "Request type must be 0 or 1",
	}

	ErrAcpTypeInvalid = &Error{
		Code:   1105,
		Status: http.StatusUnprocessableEntity,
		Title:  "Acp type is invalid",
		Detail: "Acp type must be 0 or 1",
	}

	ErrExceedsDailyQuotaLimitPerProduct = &Error{
		Code:   1106,
		Status: http.StatusUnprocessableEntity,
		Title:  "Exceeds daily quota limit per product",
		Detail: "The product has used up its quota for the last 24 hours",
	}

	ErrExceedsDailyQuotaLimitPerType = &Error{
		Code:   1107,
		Status: http.StatusUnprocessableEntity,
		Title:  "Exceeds daily quota limit per request type",
		Detail: "The product has used up its quota for this request type in the last 24 hours",
	}

	ErrExceedsDailyQuotaLimit = &Error{
		Code:   1108,
		Status: http.StatusUnprocessableEntity,
		Title:  "Exceeds daily quota limit",
		Detail: "The faucet has used up its total quota for the last 24 hours",
	}
)

// ErrPk160AlreadyClaimed indicates the product already has a live claim for
// the pk160 and request uuid pair.
var ErrPk160AlreadyClaimed = &Error{
	Code:   1109,
	Status: http.StatusUnprocessableEntity,
	Title:  "Pk160 already claimed",
	Detail: "A claim for this pk160 and request uuid is already recorded",
}

// ErrServiceBusy is returned when a claim could not be serialized against
// concurrent claims in time. Clients may retry.
var ErrServiceBusy = &Error{
	Code:   1503,
	Status: http.StatusServiceUnavailable,
	Title:  "Service busy",
	Detail: "Too many concurrent claims, retry later",
}
